package ledger

import (
	"slices"
	"sync"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
	"github.com/google/uuid"
)

type minuteKey struct {
	session uuid.UUID
	index   int
}

type recordKey struct {
	session uuid.UUID
	date    string
}

// Ledger is the in-memory accrual ledger. Records are only ever added or
// extended; nothing is deleted.
type Ledger struct {
	mu      sync.RWMutex
	records []domain.CompletedSessionRecord
	byKey   map[recordKey]int
	applied map[minuteKey]struct{}
}

// New seeds a ledger from persisted records. Focus minute indices of a session
// are contiguous from 1, so the applied set is rebuilt from the per-session sum.
func New(records []domain.CompletedSessionRecord) *Ledger {
	l := &Ledger{
		byKey:   make(map[recordKey]int),
		applied: make(map[minuteKey]struct{}),
	}
	perSession := make(map[uuid.UUID]int)
	for _, rec := range records {
		l.records = append(l.records, rec)
		if rec.SessionType != domain.SessionTypeFocus {
			continue
		}
		l.byKey[recordKey{rec.SessionID, rec.LocalDate}] = len(l.records) - 1
		perSession[rec.SessionID] += rec.DurationMinutes
	}
	for id, minutes := range perSession {
		for idx := 1; idx <= minutes; idx++ {
			l.applied[minuteKey{id, idx}] = struct{}{}
		}
	}
	return l
}

// Apply adds one minute to the focus record of (session, local date).
// A minute that was already applied is ignored and reported as not applied.
func (l *Ledger) Apply(acc domain.MinuteAccrual) (domain.CompletedSessionRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	mk := minuteKey{acc.SessionID, acc.MinuteIndex}
	if _, dup := l.applied[mk]; dup {
		return domain.CompletedSessionRecord{}, false
	}
	l.applied[mk] = struct{}{}

	rk := recordKey{acc.SessionID, acc.LocalDate}
	if i, ok := l.byKey[rk]; ok {
		l.records[i].DurationMinutes++
		l.records[i].Timestamp = acc.At
		return l.records[i], true
	}

	rec := domain.CompletedSessionRecord{
		ID:              domain.FocusRecordID(acc.SessionID, acc.LocalDate),
		SessionID:       acc.SessionID,
		SkillName:       acc.SkillName,
		DurationMinutes: 1,
		Timestamp:       acc.At,
		LocalDate:       acc.LocalDate,
		SessionType:     domain.SessionTypeFocus,
	}
	l.records = append(l.records, rec)
	l.byKey[rk] = len(l.records) - 1
	return rec, true
}

// Append adds a finished passive record.
func (l *Ledger) Append(rec domain.CompletedSessionRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
}

// SessionMinutes is the number of minutes recorded for one focus session.
func (l *Ledger) SessionMinutes(id uuid.UUID) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := 0
	for _, rec := range l.records {
		if rec.SessionID == id {
			total += rec.DurationMinutes
		}
	}
	return total
}

func (l *Ledger) Records() []domain.CompletedSessionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.records)
}
