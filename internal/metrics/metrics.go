// Package metrics holds the Prometheus collectors of the matcher. They are
// registered on the default registry and exposed by the server on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Run metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depara_runs_total",
			Help: "Total number of matching runs",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "depara_run_duration_seconds",
			Help:    "Matching run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Record metrics
	SourcesMatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depara_sources_matched_total",
			Help: "Total number of DE records matched, by outcome",
		},
		[]string{"outcome"},
	)

	BestScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "depara_best_score",
			Help:    "Composite score of the best candidate per DE record",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
	)

	// Crawl metrics
	PageFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depara_page_fetches_total",
			Help: "Total number of page metadata fetches",
		},
		[]string{"status"},
	)

	// Rerank metrics
	RerankRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depara_rerank_requests_total",
			Help: "Total number of re-ranking requests",
		},
		[]string{"status"},
	)

	RerankDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "depara_rerank_duration_seconds",
			Help:    "Re-ranking request duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depara_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "code"},
	)
)

// Outcome labels for SourcesMatched.
const (
	OutcomeAboveThreshold = "above_threshold"
	OutcomeBelowThreshold = "below_threshold"
	OutcomeNoCandidates   = "no_candidates"
)

// Status labels.
const (
	StatusOK        = "ok"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)
