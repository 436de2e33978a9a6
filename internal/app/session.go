package app

import (
	"context"
	"log/slog"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
	"github.com/Type-PrAsH/SchedWise/internal/ledger"
)

// Session returns the active focus session or passive watch.
func (s *Service) Session() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionView()
}

func (s *Service) sessionView() SessionView {
	session := s.machine.Session()
	return SessionView{
		Session:   session,
		Watch:     s.machine.Watch(),
		Exhausted: session.Exhausted(),
	}
}

// StartSession opens a focus session. It fails with
// domain.ErrSessionAlreadyActive while any session or watch is open.
func (s *Service) StartSession(ctx context.Context, task domain.FocusTask) (domain.FocusSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.machine.Start(task)
	if err != nil {
		return domain.FocusSession{}, err
	}
	s.deps.Metrics.SessionTransition(string(domain.StateRunning))
	slog.InfoContext(ctx, "Focus session started",
		"session_id", session.ID.String(),
		"skill", session.Task.SkillName,
		"planned_minutes", session.Task.PlannedDurationMinutes)

	s.persist(ctx, "start", domain.SnapshotPatch{ActiveSession: &session})
	s.ticker.Start(ctx)
	return session, nil
}

// PauseSession reports false when nothing was running.
func (s *Service) PauseSession(ctx context.Context) (SessionView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Book the minutes completed so far before the clock stops.
	s.applyAccruals(ctx, s.machine.Tick(s.clock.Now()))
	if !s.machine.Pause() {
		return s.sessionView(), false
	}
	s.ticker.Stop()
	s.deps.Metrics.SessionTransition(string(domain.StatePaused))
	slog.InfoContext(ctx, "Focus session paused")

	s.persist(ctx, "pause", s.sessionPatch())
	return s.sessionView(), true
}

// ResumeSession reports false when nothing was paused.
func (s *Service) ResumeSession(ctx context.Context) (SessionView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.machine.Resume() {
		return s.sessionView(), false
	}
	s.deps.Metrics.SessionTransition(string(domain.StateRunning))
	slog.InfoContext(ctx, "Focus session resumed")

	s.persist(ctx, "resume", s.sessionPatch())
	if !s.machine.Session().Exhausted() {
		s.ticker.Start(ctx)
	}
	return s.sessionView(), true
}

// EndSession closes the focus session as completed or abandoned. Whole
// minutes that finished before the call are still booked; nothing accrued
// is taken back.
func (s *Service) EndSession(ctx context.Context, confirmComplete bool) (domain.FocusSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.applyAccruals(ctx, s.machine.Tick(s.clock.Now()))
	ended, err := s.machine.End(confirmComplete)
	if err != nil {
		return domain.FocusSession{}, err
	}
	s.ticker.Stop()
	s.deps.Metrics.SessionTransition(string(ended.State))
	slog.InfoContext(ctx, "Focus session ended",
		"session_id", ended.ID.String(),
		"state", ended.State,
		"accrued_minutes", ended.AccruedMinutes)

	s.persist(ctx, "end", domain.SnapshotPatch{ClearActiveSession: true})
	return ended, nil
}

// Tick books every minute that completed since the last tick. The minute
// ticker calls it; it is harmless to call at any other time.
func (s *Service) Tick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accruals := s.machine.Tick(s.clock.Now())
	s.applyAccruals(ctx, accruals)

	if session := s.machine.Session(); session == nil || session.Exhausted() || session.Paused {
		s.ticker.Stop()
		if session.Exhausted() {
			slog.InfoContext(ctx, "Focus session exhausted, awaiting confirmation", "session_id", session.ID.String())
		}
	}
	if len(accruals) > 0 {
		s.persist(ctx, "tick", s.sessionPatch())
	}
}

// StartWatch opens a passive watch; it shares the single active slot with
// focus sessions.
func (s *Service) StartWatch(ctx context.Context, title, skill string) (domain.PassiveWatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	watch, err := s.machine.StartWatch(title, skill)
	if err != nil {
		return domain.PassiveWatch{}, err
	}
	s.deps.Metrics.SessionTransition("watching")
	slog.InfoContext(ctx, "Passive watch started", "watch_id", watch.ID.String(), "skill", skill)

	s.persist(ctx, "watch_start", domain.SnapshotPatch{ActiveWatch: &watch})
	return watch, nil
}

// FinishWatch closes the watch and appends its single ledger record.
func (s *Service) FinishWatch(ctx context.Context) (domain.CompletedSessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.machine.FinishWatch()
	if err != nil {
		return domain.CompletedSessionRecord{}, err
	}
	s.ledger.Append(rec)
	s.deps.Metrics.SessionTransition(string(domain.StateCompleted))
	slog.InfoContext(ctx, "Passive watch finished", "watch_id", rec.SessionID.String(), "minutes", rec.DurationMinutes)

	storeCtx, cancel := storeContext(ctx)
	defer cancel()
	if err := s.deps.Ledger.AppendRecord(storeCtx, rec); err != nil {
		s.deps.Metrics.PersistFailure("ledger")
		slog.WarnContext(ctx, "Ledger append failed, keeping in-memory record", "error", err)
	}
	s.persist(ctx, "watch_finish", domain.SnapshotPatch{ClearActiveWatch: true})
	return rec, nil
}

// Analytics recomputes the summary from the ledger.
func (s *Service) Analytics() ledger.Summary {
	s.mu.Lock()
	records := s.ledger.Records()
	var skills []string
	for _, skill := range s.state.Profile.Skills {
		skills = append(skills, skill.Name)
	}
	s.mu.Unlock()

	if len(skills) == 0 {
		skills = skillsInRecords(records)
	}
	return ledger.Summarize(records, s.now(), skills, s.cfg.GoalMinutes)
}

func skillsInRecords(records []domain.CompletedSessionRecord) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		if _, ok := seen[r.SkillName]; ok || r.SkillName == "" {
			continue
		}
		seen[r.SkillName] = struct{}{}
		out = append(out, r.SkillName)
	}
	return out
}

// applyAccruals books minutes in memory, then writes them through to the
// store. Must be called with mu held.
func (s *Service) applyAccruals(ctx context.Context, accruals []domain.MinuteAccrual) {
	for _, acc := range accruals {
		if _, applied := s.ledger.Apply(acc); !applied {
			s.deps.Metrics.DuplicateMinute("memory")
			continue
		}
		s.deps.Metrics.MinuteAccrued(acc.SkillName)
		s.pending = append(s.pending, acc)
	}
	s.flushPending(ctx)
}

// flushPending writes unpersisted minutes in order. A minute whose dedupe
// marker is held by another writer stays pending for the next flush. A store
// failure stops the flush so the stored minutes of a session stay contiguous
// from 1, which is what a restart counts on. The store ignores a minute it
// already has.
func (s *Service) flushPending(ctx context.Context) {
	if len(s.pending) == 0 {
		return
	}
	ctx, cancel := storeContext(ctx)
	defer cancel()

	kept := s.pending[:0]
	for i, acc := range s.pending {
		written, err := s.writeMinute(ctx, acc)
		if err != nil {
			kept = append(kept, s.pending[i:]...)
			break
		}
		if !written {
			kept = append(kept, acc)
		}
	}
	s.pending = kept
}

func (s *Service) writeMinute(ctx context.Context, acc domain.MinuteAccrual) (bool, error) {
	log := slog.With("session_id", acc.SessionID.String(), "minute", acc.MinuteIndex)

	if s.deps.Deduper != nil {
		claimed, err := s.deps.Deduper.Claim(ctx, acc.SessionID, acc.MinuteIndex)
		if err != nil {
			// The store is idempotent on its own; the marker only saves a round trip.
			log.DebugContext(ctx, "Tick dedupe unavailable", "error", err)
		} else if !claimed {
			s.deps.Metrics.DuplicateMinute("marker")
			return false, nil
		}
	}

	applied, err := s.deps.Ledger.ApplyMinute(ctx, acc)
	if err != nil {
		s.deps.Metrics.PersistFailure("ledger")
		log.WarnContext(ctx, "Ledger write failed, minute stays pending", "error", err)
		if s.deps.Deduper != nil {
			if relErr := s.deps.Deduper.Release(ctx, acc.SessionID, acc.MinuteIndex); relErr != nil {
				log.DebugContext(ctx, "Tick dedupe release failed", "error", relErr)
			}
		}
		return false, err
	}
	if !applied {
		s.deps.Metrics.DuplicateMinute("store")
	}
	return true, nil
}
