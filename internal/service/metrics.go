package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersTotal counts submitted orders by kind and outcome.
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papertrader_orders_total",
			Help: "Total number of submitted orders by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// FillsTotal counts fills applied to a ledger.
	FillsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papertrader_fills_total",
			Help: "Total number of fills applied by side and order kind",
		},
		[]string{"side", "kind"},
	)

	// TicksTotal counts "advance one tick" operations by trigger.
	TicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papertrader_ticks_total",
			Help: "Total number of simulation ticks by trigger",
		},
		[]string{"trigger"},
	)

	// RejectionsTotal counts fills refused by a ledger.
	RejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papertrader_rejections_total",
			Help: "Total number of fills rejected by the ledger",
		},
		[]string{"reason"},
	)

	// ActiveSessions tracks the number of live sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "papertrader_active_sessions",
			Help: "Current number of simulation sessions",
		},
	)
)
