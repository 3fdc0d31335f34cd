package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK       = "ok"
	OutcomeReplayed = "replayed"
	OutcomeError    = "error"
)

// CommandMetrics instruments reservation commands.
type CommandMetrics struct {
	duration  *prometheus.HistogramVec
	outcomes  *prometheus.CounterVec
	conflicts *prometheus.CounterVec
	retries   *prometheus.CounterVec
}

func NewCommandMetrics(reg prometheus.Registerer) *CommandMetrics {
	if reg == nil {
		return &CommandMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reservation_command_duration_seconds",
		Help:    "Duration of reservation commands in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reservation_command_total",
		Help: "Reservation commands by operation and outcome.",
	}, []string{"operation", "outcome", "code"})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reservation_conflicts_total",
		Help: "Commands rejected because the interval was taken.",
	}, []string{"operation"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reservation_command_retries_total",
		Help: "Transaction retries caused by concurrent use of an idempotency key.",
	}, []string{"operation"})
	reg.MustRegister(duration, outcomes, conflicts, retries)
	return &CommandMetrics{duration: duration, outcomes: outcomes, conflicts: conflicts, retries: retries}
}

// Observe records one finished command. code is empty on success.
func (c *CommandMetrics) Observe(operation, outcome, code string, elapsed time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(operation)).Observe(elapsed.Seconds())
	c.outcomes.WithLabelValues(normalizeLabel(operation), outcome, code).Inc()
}

func (c *CommandMetrics) IncConflict(operation string) {
	if c == nil || c.conflicts == nil {
		return
	}
	c.conflicts.WithLabelValues(normalizeLabel(operation)).Inc()
}

func (c *CommandMetrics) IncRetry(operation string) {
	if c == nil || c.retries == nil {
		return
	}
	c.retries.WithLabelValues(normalizeLabel(operation)).Inc()
}
