package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskKind classifies how demanding a task is.
type TaskKind string

const (
	TaskKindLight    TaskKind = "light"
	TaskKindPractice TaskKind = "practice"
	TaskKindDeep     TaskKind = "deep"
)

// ParseTaskKind converts a string to a TaskKind, defaulting to practice.
func ParseTaskKind(s string) TaskKind {
	switch TaskKind(s) {
	case TaskKindLight, TaskKindDeep:
		return TaskKind(s)
	default:
		return TaskKindPractice
	}
}

// KindForDuration picks the task kind that fits a free slot:
// under 30 minutes light, up to 60 practice, beyond that deep.
func KindForDuration(minutes int) TaskKind {
	switch {
	case minutes < 30:
		return TaskKindLight
	case minutes <= 60:
		return TaskKindPractice
	default:
		return TaskKindDeep
	}
}

// FocusTask is supplied by the suggestion provider or by the user.
type FocusTask struct {
	Title                  string   `json:"title"`
	Description            string   `json:"description,omitempty"`
	SkillName              string   `json:"skill"`
	PlannedDurationMinutes int      `json:"duration"`
	Kind                   TaskKind `json:"type"`
	Recommended            bool     `json:"recommended,omitempty"`
}

// SessionState is the lifecycle position of a focus session.
type SessionState string

const (
	StateIdle      SessionState = "idle"
	StateRunning   SessionState = "running"
	StatePaused    SessionState = "paused"
	StateCompleted SessionState = "completed"
	StateAbandoned SessionState = "abandoned"
)

func (s SessionState) Terminal() bool {
	return s == StateCompleted || s == StateAbandoned
}

// Active reports whether the state still owns the single session slot.
func (s SessionState) Active() bool {
	return s == StateRunning || s == StatePaused
}

// SessionType tags ledger records by the kind of session that produced them.
type SessionType string

const (
	SessionTypeFocus   SessionType = "focus"
	SessionTypePassive SessionType = "passive"
)

// FocusSession is the single timed work block. Elapsed time is derived from
// StartedAt and the accumulated pause time, never from a tick count.
type FocusSession struct {
	ID               uuid.UUID     `json:"id"`
	Task             FocusTask     `json:"task"`
	State            SessionState  `json:"state"`
	StartedAt        time.Time     `json:"started_at"`
	RemainingMinutes int           `json:"remaining_minutes"`
	AccruedMinutes   int           `json:"accrued_minutes"`
	Paused           bool          `json:"paused"`
	PausedAt         *time.Time    `json:"paused_at,omitempty"`
	PausedTotal      time.Duration `json:"paused_total"`
	EndedAt          *time.Time    `json:"ended_at,omitempty"`
}

// Exhausted is the sub-state of Running/Paused in which all planned minutes
// have accrued and the user has not yet confirmed the outcome.
func (s *FocusSession) Exhausted() bool {
	return s != nil && s.State.Active() && s.RemainingMinutes == 0
}

// PassiveWatch tracks externally consumed content. Its duration is computed once at finish.
type PassiveWatch struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	SkillName string    `json:"skill"`
	StartedAt time.Time `json:"started_at"`
}

// MinuteAccrual is one productive minute of a focus session. The pair
// (SessionID, MinuteIndex) identifies it; applying it twice must count once.
type MinuteAccrual struct {
	SessionID   uuid.UUID `json:"session_id"`
	MinuteIndex int       `json:"minute_index"`
	SkillName   string    `json:"skill"`
	At          time.Time `json:"at"`
	LocalDate   string    `json:"local_date"`
}
