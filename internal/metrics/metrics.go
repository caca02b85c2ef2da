// Package metrics exposes Prometheus instrumentation for the annotation
// service: anchor match outcomes, highlight churn, record CRUD, model
// usage and HTTP latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every collector behind one registry so tests can build
// isolated instances without default-registry collisions.
type Metrics struct {
	registry *prometheus.Registry

	MatchOutcomes      *prometheus.CounterVec
	HighlightsApplied  prometheus.Counter
	HighlightsRemoved  prometheus.Counter
	RecordOps          *prometheus.CounterVec
	LLMRequests        *prometheus.CounterVec
	DigestJobs         *prometheus.CounterVec
	HTTPRequestSeconds *prometheus.HistogramVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		MatchOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marginalia_match_outcomes_total",
				Help: "Anchor relocation attempts by outcome",
			},
			[]string{"outcome"}, // matched | missed
		),
		HighlightsApplied: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "marginalia_highlights_applied_total",
				Help: "Markers wrapped into documents",
			},
		),
		HighlightsRemoved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "marginalia_highlights_removed_total",
				Help: "Markers unwrapped from documents",
			},
		),
		RecordOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marginalia_record_operations_total",
				Help: "Record store operations",
			},
			[]string{"op"}, // add | update | delete | clear
		),
		LLMRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marginalia_llm_requests_total",
				Help: "Text-intelligence requests by operation and source",
			},
			[]string{"op", "source"},
		),
		DigestJobs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marginalia_digest_jobs_total",
				Help: "Digest job submissions by outcome",
			},
			[]string{"status"}, // queued | rejected
		),
		HTTPRequestSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marginalia_http_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status"},
		),
	}
}

// Handler serves this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
