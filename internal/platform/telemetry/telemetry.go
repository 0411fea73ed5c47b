// Package telemetry owns the console's Prometheus collectors and serves
// them at /metrics.
package telemetry

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fetalcare/fetalcare/internal/domain/scoring"
)

// Metric names.
const (
	MetricPredictions     = "fetalcare_predictions_total"
	MetricRecordFetches   = "fetalcare_record_fetches_total"
	MetricStaleResponses  = "fetalcare_stale_responses_total"
	MetricSessions        = "fetalcare_sessions"
	MetricActiveRequests  = "http_server_active_requests"
	MetricRequestDuration = "http_server_request_duration_seconds"
)

// DurationBuckets are the request latency bucket bounds in seconds.
var DurationBuckets = []float64{
	0.010, 0.025, 0.050, 0.100, 0.250, 0.500, 1.0, 2.5, 5.0, 10.0,
}

// Provider owns all console metrics on a private registry. It satisfies the
// metrics hooks of the assessment controller, the record browser and the
// session store.
type Provider struct {
	registry       *prometheus.Registry
	predictions    *prometheus.CounterVec
	recordFetches  *prometheus.CounterVec
	staleResponses prometheus.Counter
	sessions       prometheus.Gauge
	activeRequests prometheus.Gauge
	durations      *prometheus.HistogramVec
}

// NewProvider registers a fresh set of collectors.
func NewProvider() *Provider {
	p := &Provider{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricPredictions,
			Help: "Completed analyses by prediction source and class.",
		}, []string{"source", "class"}),
		recordFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRecordFetches,
			Help: "Record listing fetches by outcome.",
		}, []string{"outcome"}),
		staleResponses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricStaleResponses,
			Help: "Record listing responses discarded because a newer fetch had started.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricSessions,
			Help: "Live console sessions.",
		}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricActiveRequests,
			Help: "Number of in-flight HTTP requests.",
		}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricRequestDuration,
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: DurationBuckets,
		}, []string{"method", "route", "code"}),
	}
	p.registry.MustRegister(
		p.predictions,
		p.recordFetches,
		p.staleResponses,
		p.sessions,
		p.activeRequests,
		p.durations,
	)
	return p
}

// Prediction counts one completed analysis.
func (p *Provider) Prediction(source string, class scoring.Class) {
	p.predictions.WithLabelValues(source, class.String()).Inc()
}

// RecordFetch counts one record listing fetch.
func (p *Provider) RecordFetch(outcome string) {
	p.recordFetches.WithLabelValues(outcome).Inc()
}

// StaleResponse counts one discarded listing response.
func (p *Provider) StaleResponse() {
	p.staleResponses.Inc()
}

// SetSessions records the live session count.
func (p *Provider) SetSessions(n int) {
	p.sessions.Set(float64(n))
}

// MetricsMiddleware records in-flight requests and request latency by
// method, route and status code. Handler errors are rendered here so the
// recorded code is the one the client sees.
func (p *Provider) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p.activeRequests.Inc()
			defer p.activeRequests.Dec()
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = c.Request().URL.Path
			}
			p.durations.WithLabelValues(
				c.Request().Method,
				route,
				strconv.Itoa(c.Response().Status),
			).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// PrometheusHandler serves the registry in the exposition format the
// scraper negotiates.
func (p *Provider) PrometheusHandler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))
}
