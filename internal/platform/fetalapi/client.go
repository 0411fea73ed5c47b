// Package fetalapi is the HTTP client for the remote FetalCare prediction
// service: liveness, record statistics, paged record listing, and prediction.
package fetalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds every request when the caller does not configure one.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of a failed response body is kept for messages.
const maxErrorBody = 4096

var (
	// ErrUnavailable wraps every transport-level failure (refused connection,
	// DNS, timeout, undecodable body).
	ErrUnavailable = errors.New("fetalapi: service unavailable")

	// ErrUnhealthy is returned by Health when the service answers but does
	// not report itself as healthy.
	ErrUnhealthy = errors.New("fetalapi: service not healthy")
)

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("fetalapi: %s: unexpected status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fetalapi: %s: unexpected status %d", e.Op, e.StatusCode)
}

// IsUnavailable reports whether err means the remote service could not be
// used, either because it was unreachable or because it answered non-2xx.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrUnhealthy) || errors.As(err, &se)
}

// Client talks to one remote service instance. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New returns a Client for baseURL. A non-positive timeout selects DefaultTimeout.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health probes GET / and succeeds only when the service reports "healthy".
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, "health", http.MethodGet, "/", nil, &out); err != nil {
		return nil, err
	}
	if out.Status != "healthy" {
		return &out, fmt.Errorf("%w: status %q", ErrUnhealthy, out.Status)
	}
	return &out, nil
}

// Stats fetches GET /records/stats.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.do(ctx, "stats", http.MethodGet, "/records/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRecords fetches one page of GET /records. Empty filters are omitted
// from the query string.
func (c *Client) ListRecords(ctx context.Context, p ListParams) (*RecordList, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(p.Limit))
	q.Set("skip", strconv.Itoa(p.Skip))
	if p.CPF != "" {
		q.Set("cpf", p.CPF)
	}
	if p.HealthStatus != "" {
		q.Set("status_saude", p.HealthStatus)
	}

	var out RecordList
	if err := c.do(ctx, "list records", http.MethodGet, "/records?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if out.Records == nil {
		out.Records = []ExamRecord{}
	}
	return &out, nil
}

// Predict posts a reading to POST /predict.
func (c *Client) Predict(ctx context.Context, req PredictRequest) (*PredictResponse, error) {
	var out PredictResponse
	if err := c.do(ctx, "predict", http.MethodPost, "/predict", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs one JSON round trip. Transport and decode failures wrap
// ErrUnavailable; non-2xx answers become *StatusError.
func (c *Client) do(ctx context.Context, op, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("fetalapi: %s: encode request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("fetalapi: %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("op", op).Str("url", req.URL.String()).Msg("remote request failed")
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("op", op).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("remote request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %v", ErrUnavailable, op, err)
	}
	return nil
}

// readErrorMessage extracts the "error" field of a failure body, falling
// back to the trimmed raw text.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
		return eb.Error
	}
	return strings.TrimSpace(string(raw))
}
