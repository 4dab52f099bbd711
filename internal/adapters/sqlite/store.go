package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/bft-labs/patchview/internal/domain"
)

// Store implements ports.BatchStore using SQLite.
type Store struct {
	db       *sql.DB
	deviceID string

	mu      sync.Mutex
	entropy *rand.Rand
}

// Open opens or creates a SQLite database at path. Batches saved without a
// device id are tagged with deviceID, and Batches only lists that device
// when deviceID is set.
func Open(path, deviceID string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{
		db:       db,
		deviceID: deviceID,
		entropy:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS batches (
		id         TEXT PRIMARY KEY,
		device_id  TEXT NOT NULL,
		seq        INTEGER NOT NULL,
		start_ms   INTEGER NOT NULL DEFAULT 0,
		end_ms     INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		UNIQUE (device_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_batches_device_seq ON batches(device_id, seq);

	CREATE TABLE IF NOT EXISTS records (
		batch_id    TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
		pos         INTEGER NOT NULL,
		patch_index INTEGER NOT NULL,
		ts          INTEGER NOT NULL,
		dp_ts       INTEGER NOT NULL,
		app_index   INTEGER NOT NULL,
		logical     INTEGER,
		PRIMARY KEY (batch_id, pos)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save persists b, replacing any batch with the same device and sequence.
func (s *Store) Save(ctx context.Context, b domain.Batch) (domain.Batch, error) {
	if b.DeviceID == "" {
		b.DeviceID = s.deviceID
	}
	b.ID = s.newID()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Batch{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM batches WHERE device_id = ? AND seq = ?`, b.DeviceID, b.Seq); err != nil {
		return domain.Batch{}, fmt.Errorf("replace batch: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO batches (id, device_id, seq, start_ms, end_ms, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.DeviceID, b.Seq, b.StartMs, b.EndMs, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return domain.Batch{}, fmt.Errorf("insert batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (batch_id, pos, patch_index, ts, dp_ts, app_index, logical) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return domain.Batch{}, err
	}
	defer stmt.Close()

	for i, r := range b.Records {
		var logical sql.NullInt64
		if idx, ok := r.Logical(); ok {
			logical = sql.NullInt64{Int64: idx, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, b.ID, i, r.PatchIndex, r.TS, r.DpTS, r.AppIndex, logical); err != nil {
			return domain.Batch{}, fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Batch{}, err
	}
	return b, nil
}

// Batches returns the stored batches ordered by sequence.
func (s *Store) Batches(ctx context.Context) ([]domain.Batch, error) {
	query := `SELECT id, device_id, seq, start_ms, end_ms FROM batches`
	var args []any
	if s.deviceID != "" {
		query += ` WHERE device_id = ?`
		args = append(args, s.deviceID)
	}
	query += ` ORDER BY seq, created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var batches []domain.Batch
	for rows.Next() {
		var b domain.Batch
		if err := rows.Scan(&b.ID, &b.DeviceID, &b.Seq, &b.StartMs, &b.EndMs); err != nil {
			rows.Close()
			return nil, err
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range batches {
		records, err := s.records(ctx, batches[i].ID)
		if err != nil {
			return nil, err
		}
		batches[i].Records = records
	}
	return batches, nil
}

func (s *Store) records(ctx context.Context, batchID string) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT patch_index, ts, dp_ts, app_index, logical FROM records WHERE batch_id = ? ORDER BY pos`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.Record, 0)
	for rows.Next() {
		var r domain.Record
		var logical sql.NullInt64
		if err := rows.Scan(&r.PatchIndex, &r.TS, &r.DpTS, &r.AppIndex, &logical); err != nil {
			return nil, err
		}
		if logical.Valid {
			r = r.WithLogical(logical.Int64)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Count returns the number of stored batches for the store's device.
func (s *Store) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM batches`
	var args []any
	if s.deviceID != "" {
		query += ` WHERE device_id = ?`
		args = append(args, s.deviceID)
	}
	var n int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}
