// Package sqlite provides SQLite-backed persistence for clock sessions.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hostcarioca/timeclock/internal/platform/storage/sqlitemigrate"
	"github.com/hostcarioca/timeclock/internal/services/clock/storage"
	"github.com/hostcarioca/timeclock/internal/services/clock/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for the clock action log and
// session snapshots.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a clock SQLite store at the provided path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// AppendAction writes one action row and the owner's snapshot in a single
// transaction.
func (s *Store) AppendAction(ctx context.Context, action storage.ActionRecord, snapshot storage.SnapshotRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	action, err := normalizeActionRecord(action)
	if err != nil {
		return err
	}
	snapshot, err = normalizeSnapshotRecord(snapshot)
	if err != nil {
		return err
	}
	if action.OwnerID != snapshot.OwnerID {
		return fmt.Errorf("action owner %q does not match snapshot owner %q", action.OwnerID, snapshot.OwnerID)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin action append: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO clock_actions (owner_id, kind, at) VALUES (?, ?, ?)
`, action.OwnerID, action.Kind, toMillis(action.At)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("append action: %w", err)
	}
	if err := putSnapshotExec(ctx, tx, snapshot); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit action append: %w", err)
	}
	return nil
}

// ListActionsByOwner returns one owner's actions in insertion order.
func (s *Store) ListActionsByOwner(ctx context.Context, ownerID string) ([]storage.ActionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, owner_id, kind, at
FROM clock_actions
WHERE owner_id = ?
ORDER BY id ASC
`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var results []storage.ActionRecord
	for rows.Next() {
		var record storage.ActionRecord
		var at int64
		if err := rows.Scan(&record.ID, &record.OwnerID, &record.Kind, &at); err != nil {
			return nil, fmt.Errorf("scan action row: %w", err)
		}
		record.At = fromMillis(at)
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action rows: %w", err)
	}
	return results, nil
}

// GetSnapshot loads one owner's session snapshot.
func (s *Store) GetSnapshot(ctx context.Context, ownerID string) (storage.SnapshotRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SnapshotRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SnapshotRecord{}, fmt.Errorf("storage is not configured")
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return storage.SnapshotRecord{}, fmt.Errorf("owner id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT owner_id, state, display_ref, started_at, updated_at
FROM clock_snapshots
WHERE owner_id = ?
`, ownerID)
	record, err := scanSnapshot(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SnapshotRecord{}, storage.ErrNotFound
		}
		return storage.SnapshotRecord{}, fmt.Errorf("get snapshot: %w", err)
	}
	return record, nil
}

// PutSnapshot upserts one owner's session snapshot.
func (s *Store) PutSnapshot(ctx context.Context, snapshot storage.SnapshotRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	snapshot, err := normalizeSnapshotRecord(snapshot)
	if err != nil {
		return err
	}
	return putSnapshotExec(ctx, s.sqlDB, snapshot)
}

// ListOpenSnapshots lists snapshots whose sessions are not finalized.
func (s *Store) ListOpenSnapshots(ctx context.Context) ([]storage.SnapshotRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT owner_id, state, display_ref, started_at, updated_at
FROM clock_snapshots
WHERE state != 'finalized'
ORDER BY owner_id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list open snapshots: %w", err)
	}
	defer rows.Close()

	var results []storage.SnapshotRecord
	for rows.Next() {
		record, scanErr := scanSnapshot(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", scanErr)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return results, nil
}

type scanner func(dest ...any) error

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func normalizeActionRecord(record storage.ActionRecord) (storage.ActionRecord, error) {
	record.OwnerID = strings.TrimSpace(record.OwnerID)
	record.Kind = strings.TrimSpace(record.Kind)
	if record.OwnerID == "" {
		return storage.ActionRecord{}, fmt.Errorf("owner id is required")
	}
	if record.Kind == "" {
		return storage.ActionRecord{}, fmt.Errorf("action kind is required")
	}
	if record.At.IsZero() {
		return storage.ActionRecord{}, fmt.Errorf("action time is required")
	}
	record.At = record.At.UTC()
	return record, nil
}

func normalizeSnapshotRecord(record storage.SnapshotRecord) (storage.SnapshotRecord, error) {
	record.OwnerID = strings.TrimSpace(record.OwnerID)
	record.State = strings.TrimSpace(record.State)
	record.DisplayRef = strings.TrimSpace(record.DisplayRef)
	if record.OwnerID == "" {
		return storage.SnapshotRecord{}, fmt.Errorf("owner id is required")
	}
	if record.State == "" {
		return storage.SnapshotRecord{}, fmt.Errorf("session state is required")
	}
	if record.StartedAt.IsZero() {
		return storage.SnapshotRecord{}, fmt.Errorf("started_at is required")
	}
	if record.UpdatedAt.IsZero() {
		return storage.SnapshotRecord{}, fmt.Errorf("updated_at is required")
	}
	record.StartedAt = record.StartedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	return record, nil
}

func putSnapshotExec(ctx context.Context, execer sqlExecer, record storage.SnapshotRecord) error {
	_, err := execer.ExecContext(ctx, `
INSERT INTO clock_snapshots (owner_id, state, display_ref, started_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(owner_id) DO UPDATE SET
	state = excluded.state,
	display_ref = excluded.display_ref,
	started_at = excluded.started_at,
	updated_at = excluded.updated_at
`,
		record.OwnerID,
		record.State,
		record.DisplayRef,
		toMillis(record.StartedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}

func scanSnapshot(scan scanner) (storage.SnapshotRecord, error) {
	var record storage.SnapshotRecord
	var startedAt int64
	var updatedAt int64
	if err := scan(
		&record.OwnerID,
		&record.State,
		&record.DisplayRef,
		&startedAt,
		&updatedAt,
	); err != nil {
		return storage.SnapshotRecord{}, err
	}
	record.StartedAt = fromMillis(startedAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}
