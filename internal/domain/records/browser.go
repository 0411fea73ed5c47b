package records

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fetalcare/fetalcare/internal/platform/fetalapi"
	"github.com/fetalcare/fetalcare/internal/platform/notification"
	"github.com/fetalcare/fetalcare/pkg/pagination"
)

// Fetcher lists stored exams.
type Fetcher interface {
	ListRecords(ctx context.Context, p fetalapi.ListParams) (*fetalapi.RecordList, error)
}

// Metrics receives fetch outcomes.
type Metrics interface {
	RecordFetch(outcome string)
	StaleResponse()
}

type nopMetrics struct{}

func (nopMetrics) RecordFetch(string) {}
func (nopMetrics) StaleResponse()     {}

// Option customises a Browser.
type Option func(*Browser)

// WithMetrics reports fetch outcomes to m.
func WithMetrics(m Metrics) Option {
	return func(b *Browser) { b.metrics = m }
}

// WithDefaultLimit sets the page size used initially, after ClearFilters,
// and when the limit field cannot be parsed.
func WithDefaultLimit(n int) Option {
	return func(b *Browser) {
		if n > 0 && n <= pagination.MaxLimit {
			b.defaultLimit = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Browser) { b.now = now }
}

// Browser is the paginated, filterable view over remote exam records for one
// console session. Every operation that changes the query triggers exactly
// one fetch. Each fetch is tagged with a sequence number; a response that
// arrives after a newer fetch has started is discarded.
type Browser struct {
	mu           sync.Mutex
	fetcher      Fetcher
	notifier     notification.Notifier
	metrics      Metrics
	logger       zerolog.Logger
	now          func() time.Time
	defaultLimit int

	state     State
	query     Query
	form      FormInput
	page      Page
	err       string
	seq       uint64
	fetchedAt time.Time
}

// NewBrowser returns an idle Browser.
func NewBrowser(fetcher Fetcher, notifier notification.Notifier, logger zerolog.Logger, opts ...Option) *Browser {
	b := &Browser{
		fetcher:      fetcher,
		notifier:     notifier,
		metrics:      nopMetrics{},
		logger:       logger.With().Str("component", "records").Logger(),
		now:          time.Now,
		defaultLimit: pagination.DefaultLimit,
		state:        StateIdle,
		page:         Page{Records: []ExamRecord{}},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.query = Query{Limit: b.defaultLimit}
	b.form = FormInput{Limit: strconv.Itoa(b.defaultLimit)}
	return b
}

// ApplyFilters installs filters from raw form text and fetches page 0.
// The CPF is reduced to its digits and installed only when at least
// MinCPFDigits remain. A non-empty status is installed verbatim. An
// unparseable or non-positive limit falls back to the default.
func (b *Browser) ApplyFilters(ctx context.Context, cpfText, statusText, limitText string) (Snapshot, error) {
	b.mu.Lock()
	b.applyLocked(FormInput{CPF: cpfText, Status: statusText, Limit: limitText})
	b.mu.Unlock()
	return b.fetch(ctx)
}

// ChangePage moves to page n keeping filters and limit. Pages past the end
// are fetched as-is and yield an empty listing. Negative pages are treated
// as page 0.
func (b *Browser) ChangePage(ctx context.Context, n int) (Snapshot, error) {
	if n < 0 {
		n = 0
	}
	b.mu.Lock()
	b.query.Page = n
	b.mu.Unlock()
	return b.fetch(ctx)
}

// Goto fetches page p.Page with page size p.Limit, keeping the installed
// filters. A non-positive limit keeps the current one.
func (b *Browser) Goto(ctx context.Context, p pagination.Params) (Snapshot, error) {
	if p.Page < 0 {
		p.Page = 0
	}
	b.mu.Lock()
	if p.Limit > 0 {
		b.query.Limit = p.Limit
		b.form.Limit = strconv.Itoa(p.Limit)
	}
	b.query.Page = p.Page
	b.mu.Unlock()
	return b.fetch(ctx)
}

// QuickFilterByIdentifier puts v into the CPF field and re-applies the form
// with the current status and limit fields.
func (b *Browser) QuickFilterByIdentifier(ctx context.Context, v string) (Snapshot, error) {
	b.mu.Lock()
	form := b.form
	form.CPF = v
	b.applyLocked(form)
	b.mu.Unlock()
	return b.fetch(ctx)
}

// ClearFilters empties the form, restores the default limit, and fetches
// page 0.
func (b *Browser) ClearFilters(ctx context.Context) (Snapshot, error) {
	b.mu.Lock()
	b.form = FormInput{Limit: strconv.Itoa(b.defaultLimit)}
	b.query = Query{Limit: b.defaultLimit}
	b.mu.Unlock()
	return b.fetch(ctx)
}

// Refresh re-fetches the current query.
func (b *Browser) Refresh(ctx context.Context) (Snapshot, error) {
	return b.fetch(ctx)
}

// Snapshot returns a copy of the current state.
func (b *Browser) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *Browser) applyLocked(form FormInput) {
	b.form = form
	q := Query{
		Page:  0,
		Limit: pagination.ParseLimitOr(form.Limit, b.defaultLimit),
		Filters: Filters{
			CPF: CPFFilter(form.CPF),
		},
	}
	if form.Status != "" {
		q.Filters.HealthStatus = form.Status
	}
	b.query = q
}

// fetch runs one listing round trip. The sequence number is taken and the
// state set to loading under the lock; the network call runs unlocked; the
// result is applied under the lock only if no newer fetch has begun.
func (b *Browser) fetch(ctx context.Context) (Snapshot, error) {
	b.mu.Lock()
	b.seq++
	seq := b.seq
	q := b.query
	b.state = StateLoading
	b.err = ""
	b.mu.Unlock()

	list, err := b.fetcher.ListRecords(ctx, q.Params())

	b.mu.Lock()
	defer b.mu.Unlock()

	if seq != b.seq {
		b.metrics.StaleResponse()
		b.logger.Debug().Uint64("seq", seq).Uint64("latest", b.seq).Msg("discarding stale records response")
		return b.snapshotLocked(), nil
	}

	b.fetchedAt = b.now()
	if err != nil {
		b.state = StateErrored
		b.page = Page{Records: []ExamRecord{}}
		b.err = fetchErrorMessage(err)
		b.metrics.RecordFetch(OutcomeError)
		b.logger.Warn().Err(err).Int("page", q.Page).Int("limit", q.Limit).Msg("records fetch failed")
		if b.notifier != nil {
			b.notifier.Notify(notification.LevelError, "Erro ao carregar registros: "+b.err)
		}
		return b.snapshotLocked(), fmt.Errorf("records: list: %w", err)
	}

	b.page = Page{Records: list.Records, Total: list.Total}
	if b.page.Records == nil {
		b.page.Records = []ExamRecord{}
	}
	if len(b.page.Records) == 0 {
		b.state = StateEmpty
		b.metrics.RecordFetch(OutcomeEmpty)
	} else {
		b.state = StateLoaded
		b.metrics.RecordFetch(OutcomeLoaded)
	}
	b.logger.Debug().
		Int("page", q.Page).
		Int("limit", q.Limit).
		Int("returned", len(b.page.Records)).
		Int("total", b.page.Total).
		Msg("records fetched")
	return b.snapshotLocked(), nil
}

func (b *Browser) snapshotLocked() Snapshot {
	recs := make([]ExamRecord, len(b.page.Records))
	copy(recs, b.page.Records)
	return Snapshot{
		State:     b.state,
		Query:     b.query,
		Page:      Page{Records: recs, Total: b.page.Total},
		Form:      b.form,
		Error:     b.err,
		Seq:       b.seq,
		FetchedAt: b.fetchedAt,
	}
}

// fetchErrorMessage renders a fetch failure for the operator.
func fetchErrorMessage(err error) string {
	var se *fetalapi.StatusError
	switch {
	case errors.As(err, &se):
		return fmt.Sprintf("Erro HTTP: %d", se.StatusCode)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "tempo de resposta esgotado"
	default:
		return "falha de conexão com a API"
	}
}
