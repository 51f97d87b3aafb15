// Package metrics exposes Prometheus instrumentation for the AI gateway:
// request counts, error counts by class, latency histograms, and streamed
// fragment counts.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskpilot/gateway/pkg/providers"
)

// Metrics holds the gateway's Prometheus collectors.
//
// Metrics:
//   - taskpilot_gateway_requests_total: requests by provider, model, operation
//   - taskpilot_gateway_errors_total: errors by provider and error class
//   - taskpilot_gateway_latency_seconds: call latency by provider, operation
//   - taskpilot_gateway_fragments_total: streamed fragments by provider
type Metrics struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	errs      *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	fragments *prometheus.CounterVec
}

// New creates and registers the gateway collectors with the given registry.
// A nil registry gets a fresh one.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskpilot",
				Subsystem: "gateway",
				Name:      "requests_total",
				Help:      "Total gateway requests by provider, model, and operation",
			},
			[]string{"provider", "model", "operation"},
		),
		errs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskpilot",
				Subsystem: "gateway",
				Name:      "errors_total",
				Help:      "Total gateway errors by provider and error class",
			},
			[]string{"provider", "error_type"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "taskpilot",
				Subsystem: "gateway",
				Name:      "latency_seconds",
				Help:      "Gateway call latency in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"provider", "operation"},
		),
		fragments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskpilot",
				Subsystem: "gateway",
				Name:      "fragments_total",
				Help:      "Total streamed text fragments by provider",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(m.requests, m.errs, m.latency, m.fragments)
	return m
}

// ObserveRequest records one finished gateway call.
func (m *Metrics) ObserveRequest(provider, model, operation string, d time.Duration, err error) {
	m.requests.WithLabelValues(provider, model, operation).Inc()
	m.latency.WithLabelValues(provider, operation).Observe(d.Seconds())
	if err != nil {
		m.errs.WithLabelValues(provider, errorClass(err)).Inc()
	}
}

// AddFragments records streamed fragments delivered to a caller.
func (m *Metrics) AddFragments(provider string, n int) {
	if n > 0 {
		m.fragments.WithLabelValues(provider).Add(float64(n))
	}
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// errorClass maps an error onto its taxonomy label.
func errorClass(err error) string {
	var (
		config      *providers.ConfigError
		unsupported *providers.UnsupportedError
		rateLimit   *providers.RateLimitError
		server      *providers.ServerError
		client      *providers.ClientError
		transport   *providers.TransportError
		parse       *providers.ParseError
		stream      *providers.StreamError
		validation  *providers.ValidationError
	)
	switch {
	case errors.As(err, &config):
		return "config"
	case errors.As(err, &unsupported):
		return "unsupported"
	case errors.As(err, &rateLimit):
		return "rate_limit"
	case errors.As(err, &server):
		return "server"
	case errors.As(err, &client):
		return "client"
	case errors.As(err, &transport):
		return "transport"
	case errors.As(err, &parse):
		return "parse"
	case errors.As(err, &stream):
		return "stream"
	case errors.As(err, &validation):
		return "validation"
	default:
		return "other"
	}
}
