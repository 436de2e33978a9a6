package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SuggestionMetrics tracks suggestion requests and the providers behind them.
type SuggestionMetrics struct {
	Outcomes         *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec
	CircuitOpen      *prometheus.GaugeVec
}

func NewSuggestionMetrics(reg prometheus.Registerer) *SuggestionMetrics {
	m := &SuggestionMetrics{
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "suggestions",
			Name:      "requests_total",
			Help:      "Suggestion requests, by outcome.",
		}, []string{"outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "suggestions",
			Name:      "provider_duration_seconds",
			Help:      "Latency of calls to the suggestion provider.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"provider", "result"}),
		CircuitOpen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "suggestions",
			Name:      "circuit_open",
			Help:      "1 while the provider circuit breaker is open or half-open.",
		}, []string{"provider"}),
	}

	reg.MustRegister(m.Outcomes, m.ProviderDuration, m.CircuitOpen)
	return m
}

func (m *SuggestionMetrics) ObserveCall(provider string, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ProviderDuration.WithLabelValues(provider, result).Observe(took.Seconds())
}

func (m *SuggestionMetrics) SetCircuitOpen(provider string, open bool) {
	v := 0.0
	if open {
		v = 1
	}
	m.CircuitOpen.WithLabelValues(provider).Set(v)
}
