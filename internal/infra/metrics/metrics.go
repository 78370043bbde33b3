// Package metrics provides Prometheus metrics for the BitBond daemon:
// task throughput by outcome, custody balance, and stake sizing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Tasks ──────────────────────────────────────────────────────────────────

// TasksCreated counts successfully created escrow tasks.
var TasksCreated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bitbond",
	Name:      "tasks_created_total",
	Help:      "Total escrow tasks created.",
})

// TasksResolved counts terminal resolutions by outcome.
var TasksResolved = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bitbond",
	Name:      "tasks_resolved_total",
	Help:      "Total tasks resolved, by outcome.",
}, []string{"outcome"})

// ─── Funds ──────────────────────────────────────────────────────────────────

// CustodyBalance tracks the funds currently locked in escrow.
var CustodyBalance = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "bitbond",
	Name:      "custody_balance",
	Help:      "Sum of stakes held in custody for unresolved tasks.",
})

// StakeBonded tracks the distribution of stake amounts at creation.
var StakeBonded = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "bitbond",
	Name:      "stake_bonded_amount",
	Help:      "Stake amounts bonded into custody.",
	Buckets:   prometheus.ExponentialBuckets(1000, 10, 7),
})

// ─── API ────────────────────────────────────────────────────────────────────

// RequestDuration tracks HTTP handler latency by route.
var RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "bitbond",
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route", "method"})
