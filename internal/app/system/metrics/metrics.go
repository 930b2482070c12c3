// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReconcilePasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studyhub",
		Subsystem: "reconcile",
		Name:      "passes_total",
		Help:      "Reconciliation passes by result (ok, error, skipped).",
	}, []string{"result"})

	SessionsReconciled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "studyhub",
		Subsystem: "reconcile",
		Name:      "sessions_total",
		Help:      "Sessions converted into ledger credit.",
	})

	SessionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studyhub",
		Subsystem: "reconcile",
		Name:      "session_failures_total",
		Help:      "Sessions left in place for retry, by reason.",
	}, []string{"reason"})

	ClaimsLost = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "studyhub",
		Subsystem: "reconcile",
		Name:      "claims_lost_total",
		Help:      "Sessions already claimed by another reconciler.",
	})

	HoursCredited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "studyhub",
		Subsystem: "reconcile",
		Name:      "hours_credited_total",
		Help:      "Study hours added to group ledgers.",
	})

	PendingCounterDelta = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "studyhub",
		Subsystem: "reconcile",
		Name:      "pending_counter_delta",
		Help:      "Completed sessions not yet written to the global counter.",
	})

	PassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "studyhub",
		Subsystem: "reconcile",
		Name:      "pass_duration_seconds",
		Help:      "Wall time of one reconciliation pass.",
		Buckets:   prometheus.DefBuckets,
	})

	ModerationChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studyhub",
		Subsystem: "moderation",
		Name:      "checks_total",
		Help:      "Moderation checks by outcome (clean, flagged, error).",
	}, []string{"outcome"})

	ModerationRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "studyhub",
		Subsystem: "moderation",
		Name:      "queue_rejected_total",
		Help:      "Moderation jobs dropped because the queue was full.",
	})

	ModerationDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "studyhub",
		Subsystem: "moderation",
		Name:      "messages_deleted_total",
		Help:      "Messages removed after being flagged.",
	})
)
