package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
	"github.com/google/uuid"
)

// --- Mock implementations ---

type mockSnapshotStore struct {
	mu     sync.Mutex
	snap   domain.Snapshot
	saves  int
	loadFn func(ctx context.Context) (*domain.Snapshot, error)
	saveFn func(ctx context.Context, patch domain.SnapshotPatch) error
}

func (m *mockSnapshotStore) LoadSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx)
	}
	return nil, domain.ErrSnapshotNotFound
}

func (m *mockSnapshotStore) SaveSnapshot(ctx context.Context, patch domain.SnapshotPatch) error {
	if m.saveFn != nil {
		if err := m.saveFn(ctx, patch); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	return m.snap.Apply(patch)
}

func (m *mockSnapshotStore) current() domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

type mockLedgerStore struct {
	mu            sync.Mutex
	minutes       map[string]struct{}
	records       []domain.CompletedSessionRecord
	applyMinuteFn func(ctx context.Context, acc domain.MinuteAccrual) (bool, error)
	listRecordsFn func(ctx context.Context) ([]domain.CompletedSessionRecord, error)
}

func newMockLedgerStore() *mockLedgerStore {
	return &mockLedgerStore{minutes: make(map[string]struct{})}
}

func (m *mockLedgerStore) ApplyMinute(ctx context.Context, acc domain.MinuteAccrual) (bool, error) {
	if m.applyMinuteFn != nil {
		if applied, err := m.applyMinuteFn(ctx, acc); err != nil || !applied {
			return applied, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%s/%d", acc.SessionID, acc.MinuteIndex)
	if _, ok := m.minutes[key]; ok {
		return false, nil
	}
	m.minutes[key] = struct{}{}
	return true, nil
}

func (m *mockLedgerStore) AppendRecord(_ context.Context, rec domain.CompletedSessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *mockLedgerStore) ListRecords(ctx context.Context) ([]domain.CompletedSessionRecord, error) {
	if m.listRecordsFn != nil {
		return m.listRecordsFn(ctx)
	}
	return nil, nil
}

func (m *mockLedgerStore) minuteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.minutes)
}

type mockSuggester struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, slot domain.FreeSlot, skills []domain.Skill) ([]domain.FocusTask, error)
}

func (m *mockSuggester) GetSuggestions(ctx context.Context, slot domain.FreeSlot, skills []domain.Skill) ([]domain.FocusTask, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.fn != nil {
		return m.fn(ctx, slot, skills)
	}
	return nil, nil
}

func (m *mockSuggester) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockExtractor struct {
	extractFn func(ctx context.Context, document []byte) ([]domain.BusyInterval, []string, error)
}

func (m *mockExtractor) Extract(ctx context.Context, document []byte) ([]domain.BusyInterval, []string, error) {
	return m.extractFn(ctx, document)
}

type mockDeduper struct {
	claimFn    func(ctx context.Context, sessionID uuid.UUID, minuteIndex int) (bool, error)
	releaseFn  func(ctx context.Context, sessionID uuid.UUID, minuteIndex int) error
	releaseCnt atomic.Int32
}

func (m *mockDeduper) Claim(ctx context.Context, sessionID uuid.UUID, minuteIndex int) (bool, error) {
	if m.claimFn != nil {
		return m.claimFn(ctx, sessionID, minuteIndex)
	}
	return true, nil
}

func (m *mockDeduper) Release(ctx context.Context, sessionID uuid.UUID, minuteIndex int) error {
	m.releaseCnt.Add(1)
	if m.releaseFn != nil {
		return m.releaseFn(ctx, sessionID, minuteIndex)
	}
	return nil
}

type mockCache struct {
	mu      sync.Mutex
	entries map[string][]domain.FocusTask
}

func (m *mockCache) Get(_ context.Context, key string) ([]domain.FocusTask, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tasks, ok := m.entries[key]
	return tasks, ok
}

func (m *mockCache) Set(_ context.Context, key string, tasks []domain.FocusTask, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[string][]domain.FocusTask)
	}
	m.entries[key] = tasks
}

type countingRecorder struct {
	NopRecorder
	mu         sync.Mutex
	duplicates map[string]int
	outcomes   map[string]int
}

func (r *countingRecorder) DuplicateMinute(layer string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.duplicates == nil {
		r.duplicates = make(map[string]int)
	}
	r.duplicates[layer]++
}

func (r *countingRecorder) SuggestionOutcome(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = make(map[string]int)
	}
	r.outcomes[outcome]++
}

func (r *countingRecorder) outcome(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcomes[name]
}
