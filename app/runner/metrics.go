package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsmon_runs_total",
			Help: "Completed pipeline runs by outcome",
		},
		[]string{"outcome"}, // "success", "empty", "error"
	)

	itemsSelected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsmon_items_selected_total",
			Help: "Items picked by the selection engine for delivery",
		},
	)

	itemsDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsmon_items_delivered_total",
			Help: "Items accepted by the delivery transport",
		},
	)

	deliveryRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsmon_delivery_retries_total",
			Help: "Send attempts repeated after rate limiting",
		},
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "newsmon_run_duration_seconds",
			Help: "Wall-clock duration of a pipeline run",
			// Runs with backoff sleeps can take minutes.
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)
)
