package focus

import (
	"math"
	"time"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
	"github.com/google/uuid"
)

// Watch returns a copy of the active passive watch, or nil.
func (m *Machine) Watch() *domain.PassiveWatch {
	if m.watch == nil {
		return nil
	}
	w := *m.watch
	return &w
}

// StartWatch records the start of externally consumed content. Only the
// start time is tracked; no minutes accrue until FinishWatch.
func (m *Machine) StartWatch(title, skill string) (domain.PassiveWatch, error) {
	if m.Busy() {
		return domain.PassiveWatch{}, domain.ErrSessionAlreadyActive
	}
	m.watch = &domain.PassiveWatch{
		ID:        uuid.New(),
		Title:     title,
		SkillName: skill,
		StartedAt: m.clock.Now(),
	}
	return *m.watch, nil
}

// FinishWatch closes the watch and returns its single ledger record.
// The duration is rounded to whole minutes and never less than one.
func (m *Machine) FinishWatch() (domain.CompletedSessionRecord, error) {
	if m.watch == nil {
		return domain.CompletedSessionRecord{}, domain.ErrNoActiveSession
	}
	now := m.clock.Now()
	w := m.watch
	m.watch = nil

	minutes := int(math.Round(float64(now.Sub(w.StartedAt)) / float64(time.Minute)))
	return domain.CompletedSessionRecord{
		ID:              uuid.New(),
		SessionID:       w.ID,
		SkillName:       w.SkillName,
		DurationMinutes: max(1, minutes),
		Timestamp:       now,
		LocalDate:       m.LocalDate(now),
		SessionType:     domain.SessionTypePassive,
	}, nil
}

// RestoreWatch adopts a watch loaded from a snapshot. It is ignored while a
// focus session is active.
func (m *Machine) RestoreWatch(w *domain.PassiveWatch) {
	if w == nil || m.session != nil {
		return
	}
	restored := *w
	m.watch = &restored
}
