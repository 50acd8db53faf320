// Package metrics provides Prometheus metrics for the poll-and-notify loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "keyword_bot"

var (
	// CyclesTotal counts completed polling cycles.
	CyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Total number of completed polling cycles",
		},
	)

	// CycleDuration measures how long a polling cycle takes.
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of polling cycles in seconds",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	// FetchesTotal counts feed source fetches by source and status.
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Total number of feed source fetches",
		},
		[]string{"source", "status"},
	)

	// NotificationsTotal counts outgoing item notifications by status.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Total number of item notifications",
		},
		[]string{"status"},
	)

	// ErrorsTotal counts per-pair failures of the polling loop by kind.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of polling errors",
		},
		[]string{"kind"},
	)

	// SeenPruned counts seen items deleted by pruning.
	SeenPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seen_pruned_total",
			Help:      "Total number of seen items removed by pruning",
		},
	)
)

// RecordFetch records the outcome of one feed source fetch.
func RecordFetch(source string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	FetchesTotal.WithLabelValues(source, status).Inc()
}

// RecordNotification records the outcome of one notification.
func RecordNotification(err error) {
	status := "sent"
	if err != nil {
		status = "failed"
	}
	NotificationsTotal.WithLabelValues(status).Inc()
}

// RecordError records a polling failure of the given kind.
func RecordError(kind string) {
	ErrorsTotal.WithLabelValues(kind).Inc()
}
