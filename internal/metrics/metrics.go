// Package metrics holds the prometheus collectors of the dashboard.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// backendRequestDuration measures calls to the knowledge-base backend.
	// Labels: endpoint (stats, graph, upload), result (ok, error, timeout)
	backendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kb_dashboard",
		Subsystem: "backend",
		Name:      "request_duration_seconds",
		Help:      "Latency of knowledge-base backend requests",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"endpoint", "result"})

	// danglingLinks counts links dropped because an endpoint id is not a node.
	danglingLinks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kb_dashboard",
		Subsystem: "graph",
		Name:      "dangling_links_total",
		Help:      "Links dropped because source or target did not resolve to a node",
	})

	// uploadOutcomes counts submit attempts.
	// Labels: outcome (started, rejected, error, skipped)
	uploadOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kb_dashboard",
		Subsystem: "upload",
		Name:      "submissions_total",
		Help:      "Upload submissions by outcome",
	}, []string{"outcome"})

	// validationRejections counts files refused before any network call.
	// Labels: reason (type, size)
	validationRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kb_dashboard",
		Subsystem: "upload",
		Name:      "validation_rejections_total",
		Help:      "Upload candidates rejected by client-side validation",
	}, []string{"reason"})

	activeViews = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "kb_dashboard",
		Subsystem: "views",
		Name:      "active",
		Help:      "Mounted views held in memory",
	}, []string{"kind"})
)

// ObserveBackendRequest records one backend call.
func ObserveBackendRequest(endpoint, result string, seconds float64) {
	backendRequestDuration.WithLabelValues(endpoint, result).Observe(seconds)
}

// AddDanglingLinks records links dropped by the graph filter.
func AddDanglingLinks(n int) {
	if n > 0 {
		danglingLinks.Add(float64(n))
	}
}

// IncUploadOutcome records one submit attempt.
func IncUploadOutcome(outcome string) {
	uploadOutcomes.WithLabelValues(outcome).Inc()
}

// IncValidationRejection records one rejected candidate.
func IncValidationRejection(reason string) {
	validationRejections.WithLabelValues(reason).Inc()
}

// SetActiveViews publishes the number of live views of a kind.
func SetActiveViews(kind string, n int) {
	activeViews.WithLabelValues(kind).Set(float64(n))
}

// Handler serves the default registry in the prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
