package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FixesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courier_fixes_processed_total",
		Help: "Raw position fixes accepted from the ingest topic.",
	})

	FixesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courier_fixes_rejected_total",
		Help: "Position fixes dropped by payload validation.",
	})

	PositionWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courier_position_writes_total",
		Help: "Smoothed positions persisted to the durable store.",
	})

	WritesThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courier_position_writes_throttled_total",
		Help: "Fixes skipped because the per-courier write interval had not elapsed.",
	})

	TrackedCouriers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "courier_tracker_active_couriers",
		Help: "Couriers with live tracking state in the manager.",
	})

	AlertsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_alerts_created_total",
		Help: "Delivery alerts recorded, by type and severity.",
	}, []string{"alert_type", "severity"})
)
