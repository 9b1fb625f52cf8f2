package schedule

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the scheduler and delivery worker.
var (
	scheduleRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_schedule_runs_total",
			Help: "Total number of schedule occurrence executions by outcome",
		},
		[]string{"kind", "result"},
	)

	schedulesDue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meridian_schedules_due",
			Help: "Number of due schedules observed at the last tick",
		},
	)

	deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_schedule_deliveries_total",
			Help: "Total number of artifact deliveries by outcome",
		},
		[]string{"kind", "result"},
	)

	deliveryAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meridian_schedule_delivery_attempts",
			Help:    "Send attempts used per delivery",
			Buckets: prometheus.LinearBuckets(1, 1, 5),
		},
	)
)
