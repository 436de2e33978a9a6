package domain

import (
	"context"
	"fmt"
	"time"
)

// SnapshotVersion is the current schema version of the persisted snapshot.
const SnapshotVersion = 1

// Snapshot is everything needed to continue after a process restart.
// The ledger is stored separately and attached on load.
type Snapshot struct {
	Version       int                      `json:"version"`
	Profile       *Profile                 `json:"profile,omitempty"`
	Schedule      []BusyInterval           `json:"schedule"`
	FreeSlots     []FreeSlot               `json:"free_slots"`
	ActiveSession *FocusSession            `json:"active_session,omitempty"`
	ActiveWatch   *PassiveWatch            `json:"active_watch,omitempty"`
	UpdatedAt     time.Time                `json:"updated_at"`
	Ledger        []CompletedSessionRecord `json:"-"`
}

// SnapshotPatch is a partial update. Nil fields leave the stored value
// untouched; the Clear flags remove the active session or watch.
type SnapshotPatch struct {
	Profile            *Profile
	Schedule           *[]BusyInterval
	FreeSlots          *[]FreeSlot
	ActiveSession      *FocusSession
	ClearActiveSession bool
	ActiveWatch        *PassiveWatch
	ClearActiveWatch   bool
	At                 time.Time
}

// Empty reports whether applying the patch would change nothing but the timestamp.
func (p SnapshotPatch) Empty() bool {
	return p.Profile == nil && p.Schedule == nil && p.FreeSlots == nil &&
		p.ActiveSession == nil && !p.ClearActiveSession &&
		p.ActiveWatch == nil && !p.ClearActiveWatch
}

// Apply merges the patch into s. Applying the same patch twice yields the same snapshot.
func (s *Snapshot) Apply(p SnapshotPatch) error {
	if s.Version == 0 {
		s.Version = SnapshotVersion
	}
	if s.Version != SnapshotVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}

	if p.Profile != nil {
		profile := *p.Profile
		s.Profile = &profile
	}
	if p.Schedule != nil {
		s.Schedule = append([]BusyInterval(nil), (*p.Schedule)...)
	}
	if p.FreeSlots != nil {
		s.FreeSlots = append([]FreeSlot(nil), (*p.FreeSlots)...)
	}

	switch {
	case p.ActiveSession != nil:
		session := *p.ActiveSession
		s.ActiveSession = &session
	case p.ClearActiveSession:
		s.ActiveSession = nil
	}

	switch {
	case p.ActiveWatch != nil:
		watch := *p.ActiveWatch
		s.ActiveWatch = &watch
	case p.ClearActiveWatch:
		s.ActiveWatch = nil
	}

	if !p.At.IsZero() {
		s.UpdatedAt = p.At
	}
	return nil
}

// SnapshotStore is the persistence contract of the continuity bridge.
// SaveSnapshot merges; it never clobbers fields the patch does not name.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
	SaveSnapshot(ctx context.Context, patch SnapshotPatch) error
}
