package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
	"github.com/Type-PrAsH/SchedWise/internal/ledger"
)

// Restore rebuilds the in-memory state from the last snapshot and resumes an
// interrupted session. The free slots are recomputed from the stored busy
// intervals rather than trusted. A store that cannot be read is logged and
// the service starts empty; the next successful save repairs it.
func (s *Service) Restore(ctx context.Context) {
	snap, err := s.deps.Snapshots.LoadSnapshot(ctx)
	switch {
	case errors.Is(err, domain.ErrSnapshotNotFound):
		slog.InfoContext(ctx, "No snapshot stored, starting fresh")
		snap = &domain.Snapshot{Version: domain.SnapshotVersion}
	case err != nil:
		s.deps.Metrics.PersistFailure("load")
		slog.ErrorContext(ctx, "Snapshot load failed, starting with empty state", "error", err)
		snap = &domain.Snapshot{Version: domain.SnapshotVersion}
	case snap == nil:
		snap = &domain.Snapshot{Version: domain.SnapshotVersion}
	}

	records := snap.Ledger
	if records == nil {
		// The ledger is written before the first snapshot, so it may exist alone.
		if records, err = s.deps.Ledger.ListRecords(ctx); err != nil {
			slog.ErrorContext(ctx, "Ledger load failed, starting with empty ledger", "error", err)
			records = nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Profile != nil {
		s.state.Profile = *snap.Profile
	}
	s.state.setSchedule(snap.Schedule, s.cfg.Window)
	s.ledger = ledger.New(records)

	if snap.ActiveSession != nil {
		minutes := s.ledger.SessionMinutes(snap.ActiveSession.ID)
		catchUp := s.machine.Restore(snap.ActiveSession, minutes)
		s.applyAccruals(ctx, catchUp)
		if session := s.machine.Session(); session != nil {
			slog.InfoContext(ctx, "Focus session restored",
				"session_id", session.ID.String(),
				"ledger_minutes", minutes,
				"catch_up_minutes", len(catchUp),
				"remaining_minutes", session.RemainingMinutes,
				"paused", session.Paused)
			if session.State == domain.StateRunning && !session.Exhausted() {
				s.ticker.Start(ctx)
			}
		}
	}
	s.machine.RestoreWatch(snap.ActiveWatch)

	slog.InfoContext(ctx, "State restored",
		"busy", len(s.state.Schedule),
		"slots", s.state.Catalog.Len(),
		"records", len(records))
	s.persist(ctx, "restore", s.sessionPatch())
}
