package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CompletedSessionRecord is one ledger entry. Focus records are keyed by
// (SessionID, LocalDate) and grow minute by minute; passive records are written once.
type CompletedSessionRecord struct {
	ID              uuid.UUID   `json:"id"`
	SessionID       uuid.UUID   `json:"session_id"`
	SkillName       string      `json:"skill"`
	DurationMinutes int         `json:"duration_minutes"`
	Timestamp       time.Time   `json:"timestamp"`
	LocalDate       string      `json:"local_date"`
	SessionType     SessionType `json:"session_type"`
}

// FocusRecordID is the stable ID of the focus record for one session and
// local date, so every store derives the same key for the same minutes.
func FocusRecordID(sessionID uuid.UUID, localDate string) uuid.UUID {
	return uuid.NewSHA1(sessionID, []byte(localDate))
}

// SkillProgress is derived on read from the ledger.
type SkillProgress struct {
	Skill   string `json:"skill"`
	Minutes int    `json:"minutes"`
	Percent int    `json:"percent"`
}

// LedgerStore persists ledger writes. ApplyMinute must be idempotent per
// (SessionID, MinuteIndex) and reports whether the minute was new.
type LedgerStore interface {
	ApplyMinute(ctx context.Context, accrual MinuteAccrual) (bool, error)
	AppendRecord(ctx context.Context, record CompletedSessionRecord) error
	ListRecords(ctx context.Context) ([]CompletedSessionRecord, error)
}

// TickDeduper guards against a second writer persisting the same minute while
// a prior write is still in flight.
type TickDeduper interface {
	Claim(ctx context.Context, sessionID uuid.UUID, minuteIndex int) (bool, error)
	Release(ctx context.Context, sessionID uuid.UUID, minuteIndex int) error
}
