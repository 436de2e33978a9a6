package app

// Recorder receives the service's operational counters. The Prometheus
// adapter implements it; tests and metric-less setups use NopRecorder.
type Recorder interface {
	MinuteAccrued(skill string)
	DuplicateMinute(layer string)
	SessionTransition(state string)
	SuggestionOutcome(outcome string)
	NormalizerWarnings(n int)
	PersistFailure(op string)
}

type NopRecorder struct{}

func (NopRecorder) MinuteAccrued(string)     {}
func (NopRecorder) DuplicateMinute(string)   {}
func (NopRecorder) SessionTransition(string) {}
func (NopRecorder) SuggestionOutcome(string) {}
func (NopRecorder) NormalizerWarnings(int)   {}
func (NopRecorder) PersistFailure(string)    {}
