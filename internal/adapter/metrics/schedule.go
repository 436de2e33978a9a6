package metrics

import "github.com/prometheus/client_golang/prometheus"

type ScheduleMetrics struct {
	NormalizerWarnings prometheus.Counter
}

func NewScheduleMetrics(reg prometheus.Registerer) *ScheduleMetrics {
	m := &ScheduleMetrics{
		NormalizerWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedule",
			Name:      "normalizer_warnings_total",
			Help:      "Busy intervals dropped or clipped while computing free slots.",
		}),
	}

	reg.MustRegister(m.NormalizerWarnings)
	return m
}
