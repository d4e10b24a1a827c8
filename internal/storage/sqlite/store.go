// Package sqlite persists the forest event journal and alias counters in
// a single SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/danieljhkim/atelier/internal/event"
	"github.com/danieljhkim/atelier/internal/forest"
	"github.com/danieljhkim/atelier/internal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed journal and alias counter persistence.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the store at path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time; alias counters rely on it.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Append journals one forest event.
func (s *Store) Append(ctx context.Context, rec forest.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if rec.ForestPkgID == "" || rec.ForestID == "" {
		return fmt.Errorf("forest package and forest id are required")
	}
	if rec.Event == nil {
		return fmt.Errorf("event is required")
	}
	payload, err := json.Marshal(rec.Event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO forest_events (
	forest_pkg_id,
	forest_id,
	event_type,
	payload,
	created_at
) VALUES (?, ?, ?, ?, ?)
`,
		rec.ForestPkgID,
		rec.ForestID,
		rec.Event.EventType(),
		string(payload),
		rec.At.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Load returns every journaled event in append order.
func (s *Store) Load(ctx context.Context) ([]forest.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT
	seq,
	forest_pkg_id,
	forest_id,
	payload,
	created_at
FROM forest_events
ORDER BY seq ASC
`)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	var records []forest.Record
	for rows.Next() {
		var (
			seq       int64
			rec       forest.Record
			payload   string
			createdAt int64
		)
		if err := rows.Scan(&seq, &rec.ForestPkgID, &rec.ForestID, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev, err := event.Decode([]byte(payload))
		if err != nil {
			return nil, fmt.Errorf("decode event %d: %w", seq, err)
		}
		rec.Event = ev
		rec.At = time.UnixMilli(createdAt).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return records, nil
}

// NextAlias increments and returns the counter for (packageID, key). The
// first call for a pair returns 1.
func (s *Store) NextAlias(ctx context.Context, packageID, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin alias transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var value int64
	err = tx.QueryRowContext(ctx, `
INSERT INTO alias_counters (package_id, alias_key, value)
VALUES (?, ?, 1)
ON CONFLICT (package_id, alias_key) DO UPDATE SET value = value + 1
RETURNING value
`, packageID, key).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("increment alias counter: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit alias counter: %w", err)
	}
	return value, nil
}
