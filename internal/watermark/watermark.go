// Package watermark persists the single-row "last synced timestamp" that
// bounds each run's pull window, grounded on binlog_sync.rs's
// BinlogSyncTimestampHolder.
package watermark

import (
	"context"
	"database/sql"
	"fmt"
)

// Store reads and advances the watermark row in binlog_sync_timestamp.
type Store struct {
	db *sql.DB
}

// New builds a Store over db.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get reads the current watermark. If the table is empty, it returns 0 so
// the first run's window starts from the epoch.
func (s *Store) Get(ctx context.Context) (int64, error) {
	var ts int64
	err := s.db.QueryRowContext(ctx, "SELECT timestamp FROM binlog_sync_timestamp LIMIT 1").Scan(&ts)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read watermark: %w", err)
	}
	return ts, nil
}

// Save advances the watermark unconditionally. Callers only invoke this
// after a successful commit while still holding the run's lock, per
// spec.md §4.4/§5.
func (s *Store) Save(ctx context.Context, ts int64) error {
	res, err := s.db.ExecContext(ctx, "UPDATE binlog_sync_timestamp SET timestamp = ?", ts)
	if err != nil {
		return fmt.Errorf("save watermark: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save watermark: %w", err)
	}
	if n == 0 {
		if _, err := s.db.ExecContext(ctx, "INSERT INTO binlog_sync_timestamp (timestamp) VALUES (?)", ts); err != nil {
			return fmt.Errorf("seed watermark: %w", err)
		}
	}
	return nil
}
