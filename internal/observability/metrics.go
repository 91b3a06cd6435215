package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for MutationsTotal.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frontrow_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// MutationsTotal counts engine operations by name and outcome.
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frontrow_mutations_total",
		Help: "Total number of mutation engine operations",
	}, []string{"operation", "outcome"})

	// LikeToggles counts like-set changes that were applied.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frontrow_like_toggles_total",
		Help: "Total number of applied like and unlike operations",
	}, []string{"target", "action"})

	// LockWait records how long operations waited for their aggregate lock.
	LockWait = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "frontrow_aggregate_lock_wait_seconds",
		Help:    "Time spent waiting for a per-aggregate lock",
		Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
	}, []string{"kind"})
)

// ObserveLockWait records the wait since start for an aggregate kind.
func ObserveLockWait(kind string, start time.Time) {
	LockWait.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// RecordMutation counts one finished operation.
func RecordMutation(operation, outcome string) {
	MutationsTotal.WithLabelValues(operation, outcome).Inc()
}
