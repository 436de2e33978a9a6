package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder feeds the service's counters into Prometheus.
type Recorder struct {
	Sessions    *SessionMetrics
	Suggestions *SuggestionMetrics
	Schedule    *ScheduleMetrics
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	return &Recorder{
		Sessions:    NewSessionMetrics(reg),
		Suggestions: NewSuggestionMetrics(reg),
		Schedule:    NewScheduleMetrics(reg),
	}
}

func (r *Recorder) MinuteAccrued(skill string) {
	r.Sessions.MinutesAccrued.WithLabelValues(skill).Inc()
}

func (r *Recorder) DuplicateMinute(layer string) {
	r.Sessions.DuplicateMinutes.WithLabelValues(layer).Inc()
}

func (r *Recorder) SessionTransition(state string) {
	r.Sessions.Transitions.WithLabelValues(state).Inc()
}

func (r *Recorder) PersistFailure(op string) {
	r.Sessions.PersistFailures.WithLabelValues(op).Inc()
}

func (r *Recorder) SuggestionOutcome(outcome string) {
	r.Suggestions.Outcomes.WithLabelValues(outcome).Inc()
}

func (r *Recorder) NormalizerWarnings(n int) {
	if n > 0 {
		r.Schedule.NormalizerWarnings.Add(float64(n))
	}
}
