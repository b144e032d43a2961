package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trial_analyzer"

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
		},
		[]string{"method", "route"},
	)

	// Analysis metrics
	DocumentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "documents_total",
			Help:      "Documents received for analysis by file type and outcome",
		},
		[]string{"file_type", "outcome"},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Time spent extracting and analyzing a batch",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"operation"},
	)

	RiskScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "risk_score",
			Help:      "Overall risk score of completed analyses",
			Buckets:   []float64{0.5, 1, 1.5, 2, 2.5, 3},
		},
	)

	SimulationsTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "triggered_total",
			Help:      "Disruption simulations triggered by type and severity",
		},
		[]string{"disruption_type", "severity"},
	)

	StorageRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "retries_total",
			Help:      "Object storage operations retried after a failure",
		},
		[]string{"operation"},
	)
)

const (
	OutcomeAnalyzed = "analyzed"
	OutcomeSkipped  = "skipped"
)
