package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

// Token directions.
const (
	DirectionInput  = "input"
	DirectionOutput = "output"
)

// Metrics holds the proxy's Prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests           *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	downstreamRequests *prometheus.CounterVec
	downstreamDuration *prometheus.HistogramVec
	tokens             *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors, including Go runtime and process metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "groqway_requests_total",
				Help: "Messages requests by outcome",
			},
			[]string{"outcome"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "groqway_request_duration_seconds",
				Help:    "Messages request duration",
				Buckets: LLMBuckets,
			},
			[]string{"outcome"},
		),
		downstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "groqway_downstream_requests_total",
				Help: "Downstream chat completion calls by status code",
			},
			[]string{"code", "method"},
		),
		downstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "groqway_downstream_duration_seconds",
				Help:    "Downstream chat completion latency",
				Buckets: LLMBuckets,
			},
			[]string{"code", "method"},
		),
		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "groqway_tokens_total",
				Help: "Token count",
			},
			[]string{"direction"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.downstreamRequests,
		m.downstreamDuration,
		m.tokens,
	)

	return m
}

// Registry returns the private registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// InstrumentTransport wraps next so every downstream call is counted and timed by status code.
func (m *Metrics) InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if m == nil {
		return next
	}
	return promhttp.InstrumentRoundTripperCounter(m.downstreamRequests,
		promhttp.InstrumentRoundTripperDuration(m.downstreamDuration, next),
	)
}

// ObserveRequest records one handled Messages request.
// outcome is "ok" or the error kind.
func (m *Metrics) ObserveRequest(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
	m.requestDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// AddTokens records token usage reported by the downstream.
func (m *Metrics) AddTokens(input, output int64) {
	if m == nil {
		return
	}
	m.tokens.WithLabelValues(DirectionInput).Add(float64(input))
	m.tokens.WithLabelValues(DirectionOutput).Add(float64(output))
}
