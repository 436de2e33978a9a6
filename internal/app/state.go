package app

import (
	"slices"

	"github.com/Type-PrAsH/SchedWise/internal/availability"
	"github.com/Type-PrAsH/SchedWise/internal/domain"
)

// State is everything the service owns besides the session machine and the
// ledger. It only changes under Service.mu.
type State struct {
	Profile  domain.Profile
	Schedule []domain.BusyInterval
	Catalog  *availability.Catalog
	Warnings []string
}

// ScheduleView is a read-only copy of the schedule and its free slots.
type ScheduleView struct {
	Window   domain.DayWindow      `json:"window"`
	Busy     []domain.BusyInterval `json:"busy"`
	Slots    []domain.FreeSlot     `json:"slots"`
	Warnings []string              `json:"warnings,omitempty"`
}

// SessionView reports whichever session currently holds the active slot.
type SessionView struct {
	Session   *domain.FocusSession `json:"session,omitempty"`
	Watch     *domain.PassiveWatch `json:"watch,omitempty"`
	Exhausted bool                 `json:"exhausted"`
}

// SuggestionResult always carries a list; Status explains an empty one.
type SuggestionResult struct {
	Slot   domain.FreeSlot    `json:"slot"`
	Tasks  []domain.FocusTask `json:"tasks"`
	Status string             `json:"status,omitempty"`
}

// ImportResult is the outcome of a timetable import.
type ImportResult struct {
	Schedule ScheduleView `json:"schedule"`
	Imported int          `json:"imported"`
	Status   string       `json:"status,omitempty"`
}

// setSchedule replaces the busy intervals and rebuilds the catalog.
// It returns the normalizer warnings of this pass.
func (st *State) setSchedule(intervals []domain.BusyInterval, window domain.DayWindow) []string {
	catalog, res := availability.NewCatalog(intervals, window)
	st.Schedule = res.Busy
	st.Catalog = catalog
	st.Warnings = res.Warnings
	return res.Warnings
}

func (st *State) view() ScheduleView {
	return ScheduleView{
		Window:   st.Catalog.Window(),
		Busy:     slices.Clone(st.Schedule),
		Slots:    st.Catalog.All(),
		Warnings: slices.Clone(st.Warnings),
	}
}

// skillsByPriority orders the profile skills High > Medium > Low, keeping
// profile order among equals.
func (st *State) skillsByPriority() []domain.Skill {
	skills := slices.Clone(st.Profile.Skills)
	slices.SortStableFunc(skills, func(a, b domain.Skill) int {
		return b.Priority.Rank() - a.Priority.Rank()
	})
	return skills
}
