// Package sqlite is the single-file store for running SchedWise on one
// machine without a database server.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
)

// fixed width so text comparison orders chronologically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
  user_id    TEXT PRIMARY KEY,
  version    INTEGER NOT NULL,
  document   TEXT    NOT NULL,
  updated_at TEXT    NOT NULL
);
CREATE TABLE IF NOT EXISTS ledger_records (
  id               TEXT PRIMARY KEY,
  user_id          TEXT    NOT NULL,
  session_id       TEXT    NOT NULL,
  skill_name       TEXT    NOT NULL,
  duration_minutes INTEGER NOT NULL,
  recorded_at      TEXT    NOT NULL,
  local_date       TEXT    NOT NULL,
  session_type     TEXT    NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS ledger_records_session_day
  ON ledger_records (session_id, local_date) WHERE session_type = 'focus';
CREATE TABLE IF NOT EXISTS ledger_minutes (
  session_id   TEXT    NOT NULL,
  minute_index INTEGER NOT NULL,
  user_id      TEXT    NOT NULL,
  booked_at    TEXT    NOT NULL,
  PRIMARY KEY (session_id, minute_index)
);
`

// Observer receives one call per finished statement.
type Observer interface {
	ObserveQuery(driver, op string, took time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveQuery(string, string, time.Duration, error) {}

// Store implements domain.SnapshotStore and domain.LedgerStore on SQLite.
type Store struct {
	db     *sql.DB
	userID string
	obs    Observer
}

var (
	_ domain.SnapshotStore = (*Store)(nil)
	_ domain.LedgerStore   = (*Store)(nil)
)

// Open creates the file and schema if needed. obs may be nil.
func Open(ctx context.Context, path, userID string, obs Observer) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time; SQLite serialises anyway
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	if obs == nil {
		obs = nopObserver{}
	}
	return &Store{db: db, userID: userID, obs: obs}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) observe(op string, start time.Time, err error) {
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		err = nil
	}
	s.obs.ObserveQuery("sqlite", op, time.Since(start), err)
}

func (s *Store) LoadSnapshot(ctx context.Context) (snap *domain.Snapshot, err error) {
	defer func(start time.Time) { s.observe("load_snapshot", start, err) }(time.Now())

	var doc string
	err = s.db.QueryRowContext(ctx, `SELECT document FROM snapshots WHERE user_id = ?`, s.userID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var out domain.Snapshot
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if out.Version != domain.SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnsupportedVersion, out.Version)
	}

	out.Ledger, err = s.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) SaveSnapshot(ctx context.Context, patch domain.SnapshotPatch) (err error) {
	defer func(start time.Time) { s.observe("save_snapshot", start, err) }(time.Now())

	return s.inTx(ctx, func(tx *sql.Tx) error {
		var snap domain.Snapshot
		var doc string
		err := tx.QueryRowContext(ctx, `SELECT document FROM snapshots WHERE user_id = ?`, s.userID).Scan(&doc)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("read snapshot: %w", err)
		default:
			if err := json.Unmarshal([]byte(doc), &snap); err != nil {
				return fmt.Errorf("decode snapshot: %w", err)
			}
		}

		if err := snap.Apply(patch); err != nil {
			return err
		}
		out, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO snapshots (user_id, version, document, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
  version=excluded.version,
  document=excluded.document,
  updated_at=excluded.updated_at`,
			s.userID, snap.Version, string(out), time.Now().UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		return nil
	})
}

func (s *Store) ApplyMinute(ctx context.Context, acc domain.MinuteAccrual) (applied bool, err error) {
	defer func(start time.Time) { s.observe("apply_minute", start, err) }(time.Now())

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO ledger_minutes (session_id, minute_index, user_id, booked_at) VALUES (?, ?, ?, ?)
ON CONFLICT(session_id, minute_index) DO NOTHING`,
			acc.SessionID.String(), acc.MinuteIndex, s.userID, acc.At.UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("insert minute: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			return err
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO ledger_records
  (id, user_id, session_id, skill_name, duration_minutes, recorded_at, local_date, session_type)
VALUES (?, ?, ?, ?, 1, ?, ?, 'focus')
ON CONFLICT(session_id, local_date) WHERE session_type = 'focus' DO UPDATE SET
  duration_minutes = duration_minutes + 1,
  recorded_at = max(recorded_at, excluded.recorded_at)`,
			domain.FocusRecordID(acc.SessionID, acc.LocalDate).String(), s.userID, acc.SessionID.String(),
			acc.SkillName, acc.At.UTC().Format(timeLayout), acc.LocalDate)
		if err != nil {
			return fmt.Errorf("upsert focus record: %w", err)
		}
		applied = true
		return nil
	})
	return applied, err
}

func (s *Store) AppendRecord(ctx context.Context, rec domain.CompletedSessionRecord) (err error) {
	defer func(start time.Time) { s.observe("append_record", start, err) }(time.Now())

	_, err = s.db.ExecContext(ctx, `
INSERT INTO ledger_records
  (id, user_id, session_id, skill_name, duration_minutes, recorded_at, local_date, session_type)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING`,
		rec.ID.String(), s.userID, rec.SessionID.String(), rec.SkillName, rec.DurationMinutes,
		rec.Timestamp.UTC().Format(timeLayout), rec.LocalDate, string(rec.SessionType))
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

func (s *Store) ListRecords(ctx context.Context) (records []domain.CompletedSessionRecord, err error) {
	defer func(start time.Time) { s.observe("list_records", start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx, `
SELECT id, session_id, skill_name, duration_minutes, recorded_at, local_date, session_type
FROM ledger_records WHERE user_id = ? ORDER BY recorded_at, id`, s.userID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec domain.CompletedSessionRecord
		var id, sessionID, recordedAt, sessionType string
		if err := rows.Scan(&id, &sessionID, &rec.SkillName, &rec.DurationMinutes, &recordedAt, &rec.LocalDate, &sessionType); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("record id %q: %w", id, err)
		}
		if rec.SessionID, err = uuid.Parse(sessionID); err != nil {
			return nil, fmt.Errorf("record session id %q: %w", sessionID, err)
		}
		if rec.Timestamp, err = time.Parse(timeLayout, recordedAt); err != nil {
			return nil, fmt.Errorf("record time %q: %w", recordedAt, err)
		}
		rec.SessionType = domain.SessionType(sessionType)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
