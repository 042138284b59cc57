// Package metrics exposes Warden's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_events_processed_total",
			Help: "Total number of events processed, by outcome",
		},
		[]string{"outcome"},
	)

	AlertsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_alerts_generated_total",
			Help: "Total number of detection results emitted, by kill-chain stage",
		},
		[]string{"stage"},
	)

	OrderingViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_ordering_violations_total",
			Help: "Total number of events dropped for sequence or timestamp regression",
		},
		[]string{"reason"},
	)

	TransitionsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "warden_transitions_rejected_total",
			Help: "Total number of kill-chain transitions rejected as illegal",
		},
	)

	SignalsEvicted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_signals_evicted_total",
			Help: "Total number of signals evicted, by cause",
		},
		[]string{"cause"},
	)

	EntitiesEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "warden_entities_evicted_total",
			Help: "Total number of idle entities reclaimed by the maintenance sweep",
		},
	)

	EntitiesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "warden_entities_active",
			Help: "Number of entities currently tracked by the state store",
		},
	)

	EngineHalted = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "warden_engine_halted",
			Help: "1 when the engine has latched into the halted state",
		},
	)

	LockWaitTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "warden_lock_wait_timeouts_total",
			Help: "Total number of bounded waits for entity access that timed out",
		},
	)

	ProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "warden_event_processing_duration_seconds",
			Help:    "Time taken to run one event through the correlation pipeline",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Outcome labels for EventsProcessed.
const (
	OutcomeNoAlert  = "no_alert"
	OutcomeAlert    = "alert"
	OutcomeDropped  = "dropped"
	OutcomeRejected = "rejected"
	OutcomeHalted   = "halted"
)
