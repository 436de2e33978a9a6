package domain

import (
	"context"
	"time"
)

// SuggestionProvider proposes tasks for a free slot. It may block on the network
// and must honour ctx cancellation.
type SuggestionProvider interface {
	GetSuggestions(ctx context.Context, slot FreeSlot, skills []Skill) ([]FocusTask, error)
}

// ExtractionProvider turns a timetable document into busy intervals.
// Warnings are surfaced to the user verbatim.
type ExtractionProvider interface {
	Extract(ctx context.Context, document []byte) ([]BusyInterval, []string, error)
}

// SuggestionCache stores provider results per slot and skill set.
type SuggestionCache interface {
	Get(ctx context.Context, key string) ([]FocusTask, bool)
	Set(ctx context.Context, key string, tasks []FocusTask, ttl time.Duration)
}
