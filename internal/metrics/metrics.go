package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecoveryAttempts tracks finished recovery attempts by outcome and source
	RecoveryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salvage_recovery_attempts_total",
			Help: "Total number of finished recovery attempts",
		},
		[]string{"status", "source"},
	)

	// RecoveryDuration tracks end-to-end recovery latency
	RecoveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "salvage_recovery_duration_seconds",
			Help:    "Recovery attempt duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// DedupJoins tracks callers that joined an already in-flight recovery
	DedupJoins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "salvage_recovery_dedup_joins_total",
			Help: "Total number of callers joining an in-flight recovery",
		},
	)

	// Cancellations tracks advisory cancellations
	Cancellations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "salvage_recovery_cancellations_total",
			Help: "Total number of cancelled recoveries",
		},
	)

	// ConflictsDetected tracks detected snapshot disagreements
	ConflictsDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "salvage_conflicts_detected_total",
			Help: "Total number of detected snapshot conflicts",
		},
	)

	// ConflictsResolved tracks automatically merged conflicts
	ConflictsResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "salvage_conflicts_resolved_total",
			Help: "Total number of automatically resolved conflicts",
		},
	)

	// ComponentRecoveries tracks per-component progressive recovery outcomes
	ComponentRecoveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salvage_component_recoveries_total",
			Help: "Total number of per-component recovery attempts",
		},
		[]string{"component", "outcome"},
	)

	// DBConnectionPoolUsage tracks database pool saturation
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "salvage_db_connection_pool_usage",
			Help: "Database connection pool usage percentage",
		},
	)
)
