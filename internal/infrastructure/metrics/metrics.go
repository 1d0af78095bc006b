package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Media-Access Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creatorhub",
			Subsystem: "media_access",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "creatorhub",
			Subsystem: "media_access",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// Access decision counter, labelled with the internal denial reason.
	// Reasons are never echoed to clients; this is the operational view.
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creatorhub",
			Subsystem: "media_access",
			Name:      "decisions_total",
			Help:      "Total grant/deny decisions",
		},
		[]string{"operation", "decision", "reason"},
	)

	// Presign URL duration
	PresignDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "creatorhub",
			Subsystem: "media_access",
			Name:      "presign_duration_seconds",
			Help:      "Signed URL generation duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	// Stream token issuance counter
	StreamTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creatorhub",
			Subsystem: "media_access",
			Name:      "stream_tokens_total",
			Help:      "Total streaming tokens issued",
		},
		[]string{"status"},
	)

	// Storage operations counter
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creatorhub",
			Subsystem: "media_access",
			Name:      "storage_operations_total",
			Help:      "Total storage backend operations",
		},
		[]string{"operation", "status"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordDecision records a grant/deny decision
func RecordDecision(operation, decision, reason string) {
	DecisionsTotal.WithLabelValues(operation, decision, reason).Inc()
}

// RecordPresign records signed URL generation
func RecordPresign(durationSec float64) {
	PresignDuration.Observe(durationSec)
}

// RecordStreamToken records a streaming token issuance attempt
func RecordStreamToken(status string) {
	StreamTokensTotal.WithLabelValues(status).Inc()
}

// RecordStorageOperation records a storage backend operation
func RecordStorageOperation(operation, status string) {
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
}
