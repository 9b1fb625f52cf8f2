package alerts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the alert engine.
var (
	alertChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_alert_checks_total",
			Help: "Total number of project alert evaluations",
		},
		[]string{"result"},
	)

	alertsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_alerts_created_total",
			Help: "Total number of alerts created",
		},
		[]string{"type"},
	)

	alertsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_alerts_suppressed_total",
			Help: "Total number of alerts suppressed by the dedup window",
		},
		[]string{"type"},
	)

	alertsAcknowledged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meridian_alerts_acknowledged_total",
			Help: "Total number of alerts acknowledged",
		},
	)

	budgetConsumedPercent = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "meridian_budget_consumed_percent",
			Help: "Budget consumption percentage per project at last check",
		},
		[]string{"project_id"},
	)
)
