package focus

import (
	"fmt"
	"time"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Machine owns the single focus session and the single passive watch.
// It is not safe for concurrent use; the application service serialises calls.
type Machine struct {
	clock clockwork.Clock
	loc   *time.Location

	session *domain.FocusSession
	watch   *domain.PassiveWatch

	// accounted is the highest minute index already emitted for session.
	accounted int
}

func NewMachine(clock clockwork.Clock, loc *time.Location) *Machine {
	if loc == nil {
		loc = time.Local
	}
	return &Machine{clock: clock, loc: loc}
}

// LocalDate formats t as a calendar date in the machine's time zone.
func (m *Machine) LocalDate(t time.Time) string {
	return t.In(m.loc).Format(time.DateOnly)
}

// Session returns a copy of the active session, or nil when idle.
func (m *Machine) Session() *domain.FocusSession {
	if m.session == nil {
		return nil
	}
	return cloneSession(m.session)
}

// Busy reports whether a focus session or a passive watch holds the single active slot.
func (m *Machine) Busy() bool {
	return m.session != nil || m.watch != nil
}

// Start opens a new session for task. It never replaces an active session or watch.
func (m *Machine) Start(task domain.FocusTask) (domain.FocusSession, error) {
	if m.Busy() {
		return domain.FocusSession{}, domain.ErrSessionAlreadyActive
	}
	if task.PlannedDurationMinutes <= 0 {
		return domain.FocusSession{}, fmt.Errorf("%w: planned duration must be positive, got %d", domain.ErrInvalidTask, task.PlannedDurationMinutes)
	}
	if task.Kind == "" {
		task.Kind = domain.KindForDuration(task.PlannedDurationMinutes)
	}

	m.session = &domain.FocusSession{
		ID:               uuid.New(),
		Task:             task,
		State:            domain.StateRunning,
		StartedAt:        m.clock.Now(),
		RemainingMinutes: task.PlannedDurationMinutes,
	}
	m.accounted = 0
	return *cloneSession(m.session), nil
}

// Pause reports false when there is no running session.
func (m *Machine) Pause() bool {
	if m.session == nil || m.session.State != domain.StateRunning {
		return false
	}
	now := m.clock.Now()
	m.session.State = domain.StatePaused
	m.session.Paused = true
	m.session.PausedAt = &now
	return true
}

// Resume reports false when there is no paused session.
func (m *Machine) Resume() bool {
	if m.session == nil || m.session.State != domain.StatePaused {
		return false
	}
	now := m.clock.Now()
	if m.session.PausedAt != nil {
		m.session.PausedTotal += now.Sub(*m.session.PausedAt)
	}
	m.session.State = domain.StateRunning
	m.session.Paused = false
	m.session.PausedAt = nil
	return true
}

// Tick emits one accrual for every whole minute of active time that has not
// been accounted yet. The minute index comes from the wall clock, so late or
// repeated ticks still yield each index exactly once.
func (m *Machine) Tick(now time.Time) []domain.MinuteAccrual {
	s := m.session
	if s == nil || s.State != domain.StateRunning {
		return nil
	}

	elapsed := m.activeElapsed(now)
	target := min(int(elapsed/time.Minute), s.Task.PlannedDurationMinutes)
	if target <= m.accounted {
		return nil
	}

	accruals := make([]domain.MinuteAccrual, 0, target-m.accounted)
	for idx := m.accounted + 1; idx <= target; idx++ {
		// Backdate to the moment the minute completed so a catch-up after
		// midnight still lands on the right calendar day.
		at := now.Add(-(elapsed - time.Duration(idx)*time.Minute))
		accruals = append(accruals, domain.MinuteAccrual{
			SessionID:   s.ID,
			MinuteIndex: idx,
			SkillName:   s.Task.SkillName,
			At:          at,
			LocalDate:   m.LocalDate(at),
		})
	}
	m.setAccounted(target)
	return accruals
}

// End closes the active session as Completed or Abandoned. Minutes already
// accrued stand as they are.
func (m *Machine) End(confirmComplete bool) (domain.FocusSession, error) {
	if m.session == nil {
		return domain.FocusSession{}, domain.ErrNoActiveSession
	}
	now := m.clock.Now()
	s := m.session
	if s.PausedAt != nil {
		s.PausedTotal += now.Sub(*s.PausedAt)
		s.PausedAt = nil
	}
	s.Paused = false
	s.EndedAt = &now
	if confirmComplete {
		s.State = domain.StateCompleted
	} else {
		s.State = domain.StateAbandoned
	}

	ended := *cloneSession(s)
	m.session = nil
	m.accounted = 0
	return ended, nil
}

// Restore adopts a session loaded from a snapshot. ledgerMinutes is what the
// ledger holds for the session and is the only count trusted: the snapshot's
// AccruedMinutes may include minutes whose ledger write never landed. Every
// minute of active wall-clock time beyond the ledger is returned as a
// catch-up accrual when the session was running.
func (m *Machine) Restore(session *domain.FocusSession, ledgerMinutes int) []domain.MinuteAccrual {
	if session == nil || !session.State.Active() {
		return nil
	}
	m.session = cloneSession(session)
	m.session.Paused = m.session.State == domain.StatePaused
	if m.session.Paused && m.session.PausedAt == nil {
		now := m.clock.Now()
		m.session.PausedAt = &now
	}
	m.setAccounted(min(ledgerMinutes, session.Task.PlannedDurationMinutes))
	return m.Tick(m.clock.Now())
}

func (m *Machine) setAccounted(n int) {
	m.accounted = n
	m.session.AccruedMinutes = n
	m.session.RemainingMinutes = max(0, m.session.Task.PlannedDurationMinutes-n)
}

func (m *Machine) activeElapsed(now time.Time) time.Duration {
	s := m.session
	elapsed := now.Sub(s.StartedAt) - s.PausedTotal
	if s.PausedAt != nil {
		elapsed -= now.Sub(*s.PausedAt)
	}
	return max(elapsed, 0)
}

func cloneSession(s *domain.FocusSession) *domain.FocusSession {
	out := *s
	if s.PausedAt != nil {
		t := *s.PausedAt
		out.PausedAt = &t
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		out.EndedAt = &t
	}
	return &out
}
