package postgres

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}
	os.Exit(runWithPostgres(m))
}

func runWithPostgres(m *testing.M) int {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:18-alpine",
		tcpostgres.WithDatabase("schedwise"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		return 1
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to terminate postgres container: %v\n", err)
		}
	}()

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get connection string: %v\n", err)
		return 1
	}

	testPool, err = Connect(ctx, connStr, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		return 1
	}
	defer testPool.Close()

	if err := RunMigrationsWithLock(ctx, testPool); err != nil {
		fmt.Fprintf(os.Stderr, "failed to migrate: %v\n", err)
		return 1
	}
	return m.Run()
}

func setupStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	t.Cleanup(func() {
		_, err := testPool.Exec(context.Background(), "TRUNCATE snapshots, ledger_records, ledger_minutes")
		if err != nil {
			t.Logf("failed to truncate tables: %v", err)
		}
	})
	return NewStore(testPool, "user-1")
}

func TestLoadSnapshot_NotFound(t *testing.T) {
	store := setupStore(t)

	_, err := store.LoadSnapshot(context.Background())
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestSaveSnapshot_MergesPatches(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	schedule := []domain.BusyInterval{{ID: uuid.New(), Day: domain.Monday, From: 540, To: 600}}
	require.NoError(t, store.SaveSnapshot(ctx, domain.SnapshotPatch{Schedule: &schedule}))
	require.NoError(t, store.SaveSnapshot(ctx, domain.SnapshotPatch{Profile: &domain.Profile{Name: "Ada"}}))

	snap, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SnapshotVersion, snap.Version)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, "Ada", snap.Profile.Name)
	assert.Equal(t, schedule, snap.Schedule, "profile save must not clobber the schedule")
}

func TestSaveSnapshot_ConcurrentFieldsBothSurvive(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	schedule := []domain.BusyInterval{{ID: uuid.New(), Day: domain.Friday, From: 600, To: 660}}
	session := domain.FocusSession{ID: uuid.New(), State: domain.StateRunning, StartedAt: time.Now().UTC()}

	var wg sync.WaitGroup
	wg.Go(func() { assert.NoError(t, store.SaveSnapshot(ctx, domain.SnapshotPatch{Schedule: &schedule})) })
	wg.Go(func() { assert.NoError(t, store.SaveSnapshot(ctx, domain.SnapshotPatch{ActiveSession: &session})) })
	wg.Wait()

	snap, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Schedule, 1)
	require.NotNil(t, snap.ActiveSession)
	assert.Equal(t, session.ID, snap.ActiveSession.ID)
}

func TestSaveSnapshot_ClearActiveSession(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	session := domain.FocusSession{ID: uuid.New(), State: domain.StateRunning}
	require.NoError(t, store.SaveSnapshot(ctx, domain.SnapshotPatch{ActiveSession: &session}))
	require.NoError(t, store.SaveSnapshot(ctx, domain.SnapshotPatch{ClearActiveSession: true}))

	snap, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap.ActiveSession)
}

func TestApplyMinute_IdempotentPerMinute(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	sessionID := uuid.New()
	at := time.Date(2024, 5, 15, 9, 1, 0, 0, time.UTC)

	for idx := 1; idx <= 3; idx++ {
		acc := domain.MinuteAccrual{SessionID: sessionID, MinuteIndex: idx, SkillName: "Math", At: at, LocalDate: "2024-05-15"}
		applied, err := store.ApplyMinute(ctx, acc)
		require.NoError(t, err)
		assert.True(t, applied)

		again, err := store.ApplyMinute(ctx, acc)
		require.NoError(t, err)
		assert.False(t, again, "replayed minute %d must not count", idx)
		at = at.Add(time.Minute)
	}

	records, err := store.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].DurationMinutes)
	assert.Equal(t, domain.FocusRecordID(sessionID, "2024-05-15"), records[0].ID)
	assert.Equal(t, "2024-05-15", records[0].LocalDate)
	assert.Equal(t, domain.SessionTypeFocus, records[0].SessionType)
	assert.True(t, at.Add(-time.Minute).Equal(records[0].Timestamp))
}

func TestApplyMinute_SplitsAcrossMidnight(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	sessionID := uuid.New()

	_, err := store.ApplyMinute(ctx, domain.MinuteAccrual{SessionID: sessionID, MinuteIndex: 1, SkillName: "Art",
		At: time.Date(2024, 5, 15, 23, 59, 0, 0, time.UTC), LocalDate: "2024-05-15"})
	require.NoError(t, err)
	_, err = store.ApplyMinute(ctx, domain.MinuteAccrual{SessionID: sessionID, MinuteIndex: 2, SkillName: "Art",
		At: time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC), LocalDate: "2024-05-16"})
	require.NoError(t, err)

	records, err := store.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2024-05-15", records[0].LocalDate)
	assert.Equal(t, "2024-05-16", records[1].LocalDate)
}

func TestAppendRecord_AttachedOnLoad(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	rec := domain.CompletedSessionRecord{
		ID:              uuid.New(),
		SessionID:       uuid.New(),
		SkillName:       "Guitar",
		DurationMinutes: 12,
		Timestamp:       time.Date(2024, 5, 15, 20, 0, 0, 0, time.UTC),
		LocalDate:       "2024-05-15",
		SessionType:     domain.SessionTypePassive,
	}
	require.NoError(t, store.AppendRecord(ctx, rec))
	require.NoError(t, store.AppendRecord(ctx, rec))
	require.NoError(t, store.SaveSnapshot(ctx, domain.SnapshotPatch{Profile: &domain.Profile{Name: "Ada"}}))

	snap, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Ledger, 1)
	assert.Equal(t, rec.ID, snap.Ledger[0].ID)
	assert.Equal(t, domain.SessionTypePassive, snap.Ledger[0].SessionType)
}

func TestStores_AreScopedByUser(t *testing.T) {
	store := setupStore(t)
	other := NewStore(testPool, "user-2")
	ctx := context.Background()

	require.NoError(t, store.SaveSnapshot(ctx, domain.SnapshotPatch{Profile: &domain.Profile{Name: "Ada"}}))

	_, err := other.LoadSnapshot(ctx)
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestQueryVerb(t *testing.T) {
	assert.Equal(t, "select", queryVerb("  SELECT 1"))
	assert.Equal(t, "insert", queryVerb("\n\t\t\tINSERT INTO x"))
	assert.Equal(t, "unknown", queryVerb(""))
}
