package metrics

import "github.com/prometheus/client_golang/prometheus"

// SessionMetrics covers the focus-session ticker and the minute ledger.
type SessionMetrics struct {
	MinutesAccrued   *prometheus.CounterVec
	DuplicateMinutes *prometheus.CounterVec
	Transitions      *prometheus.CounterVec
	PersistFailures  *prometheus.CounterVec
}

func NewSessionMetrics(reg prometheus.Registerer) *SessionMetrics {
	m := &SessionMetrics{
		MinutesAccrued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "minutes_accrued_total",
			Help:      "Focus minutes booked into the ledger, by skill.",
		}, []string{"skill"}),
		DuplicateMinutes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "duplicate_minutes_total",
			Help:      "Minute ticks rejected as already booked, by the layer that caught them.",
		}, []string{"layer"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Focus session and watch state transitions, by target state.",
		}, []string{"state"}),
		PersistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "persist_failures_total",
			Help:      "Snapshot or ledger writes that failed, by operation.",
		}, []string{"op"}),
	}

	reg.MustRegister(m.MinutesAccrued, m.DuplicateMinutes, m.Transitions, m.PersistFailures)
	return m
}
