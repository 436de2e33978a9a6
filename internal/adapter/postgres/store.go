package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
)

const dateLayout = "2006-01-02"

// Store keeps one user's snapshot and ledger. It implements
// domain.SnapshotStore and domain.LedgerStore.
type Store struct {
	pool   *pgxpool.Pool
	userID string
}

var (
	_ domain.SnapshotStore = (*Store)(nil)
	_ domain.LedgerStore   = (*Store)(nil)
)

func NewStore(pool *pgxpool.Pool, userID string) *Store {
	return &Store{pool: pool, userID: userID}
}

// LoadSnapshot returns domain.ErrSnapshotNotFound before the first save.
// The ledger is attached from its own tables.
func (s *Store) LoadSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT document FROM snapshots WHERE user_id = $1`, s.userID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(doc, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Version != domain.SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnsupportedVersion, snap.Version)
	}

	snap.Ledger, err = s.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// SaveSnapshot merges the patch into the stored document under a per-user
// transaction lock, so concurrent saves of different fields both survive.
func (s *Store) SaveSnapshot(ctx context.Context, patch domain.SnapshotPatch) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, s.userID); err != nil {
			return fmt.Errorf("failed to lock snapshot: %w", err)
		}

		var snap domain.Snapshot
		var doc []byte
		err := tx.QueryRow(ctx, `SELECT document FROM snapshots WHERE user_id = $1`, s.userID).Scan(&doc)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			return fmt.Errorf("failed to read snapshot: %w", err)
		default:
			if err := json.Unmarshal(doc, &snap); err != nil {
				return fmt.Errorf("failed to decode snapshot: %w", err)
			}
		}

		if err := snap.Apply(patch); err != nil {
			return err
		}
		out, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO snapshots (user_id, version, document, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (user_id) DO UPDATE
			SET version = EXCLUDED.version, document = EXCLUDED.document, updated_at = now()`,
			s.userID, snap.Version, out)
		if err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
		return nil
	})
}

// ApplyMinute books one minute exactly once. The minute row is the
// idempotency key; the record only grows when that insert took effect.
func (s *Store) ApplyMinute(ctx context.Context, acc domain.MinuteAccrual) (bool, error) {
	day, err := time.Parse(dateLayout, acc.LocalDate)
	if err != nil {
		return false, fmt.Errorf("invalid local date %q: %w", acc.LocalDate, err)
	}

	applied := false
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO ledger_minutes (session_id, minute_index, user_id, booked_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (session_id, minute_index) DO NOTHING`,
			acc.SessionID, acc.MinuteIndex, s.userID, acc.At)
		if err != nil {
			return fmt.Errorf("failed to insert minute: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO ledger_records
				(id, user_id, session_id, skill_name, duration_minutes, recorded_at, local_date, session_type)
			VALUES ($1, $2, $3, $4, 1, $5, $6, 'focus')
			ON CONFLICT (session_id, local_date) WHERE session_type = 'focus' DO UPDATE
			SET duration_minutes = ledger_records.duration_minutes + 1,
			    recorded_at = GREATEST(ledger_records.recorded_at, EXCLUDED.recorded_at)`,
			domain.FocusRecordID(acc.SessionID, acc.LocalDate), s.userID, acc.SessionID, acc.SkillName, acc.At, day)
		if err != nil {
			return fmt.Errorf("failed to upsert focus record: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// AppendRecord writes a finished passive record; replays are ignored.
func (s *Store) AppendRecord(ctx context.Context, rec domain.CompletedSessionRecord) error {
	day, err := time.Parse(dateLayout, rec.LocalDate)
	if err != nil {
		return fmt.Errorf("invalid local date %q: %w", rec.LocalDate, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO ledger_records
			(id, user_id, session_id, skill_name, duration_minutes, recorded_at, local_date, session_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		rec.ID, s.userID, rec.SessionID, rec.SkillName, rec.DurationMinutes, rec.Timestamp, day, string(rec.SessionType))
	if err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

func (s *Store) ListRecords(ctx context.Context) ([]domain.CompletedSessionRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, skill_name, duration_minutes, recorded_at,
		       to_char(local_date, 'YYYY-MM-DD'), session_type
		FROM ledger_records
		WHERE user_id = $1
		ORDER BY recorded_at, id`, s.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CompletedSessionRecord, error) {
		var rec domain.CompletedSessionRecord
		var sessionType string
		err := row.Scan(&rec.ID, &rec.SessionID, &rec.SkillName, &rec.DurationMinutes,
			&rec.Timestamp, &rec.LocalDate, &sessionType)
		rec.SessionType = domain.SessionType(sessionType)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}
	return records, nil
}
