package watermark

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE binlog_sync_timestamp (timestamp INTEGER NOT NULL)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetOnEmptyTableReturnsZero(t *testing.T) {
	store := New(newTestDB(t))

	ts, err := store.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ts != 0 {
		t.Errorf("Get() on empty table = %d, want 0", ts)
	}
}

func TestSaveThenGetRoundTrips(t *testing.T) {
	store := New(newTestDB(t))
	ctx := context.Background()

	if err := store.Save(ctx, 1000); err != nil {
		t.Fatalf("Save(1000) error = %v", err)
	}
	if got, err := store.Get(ctx); err != nil || got != 1000 {
		t.Fatalf("Get() after first Save = (%d, %v), want (1000, nil)", got, err)
	}

	if err := store.Save(ctx, 2000); err != nil {
		t.Fatalf("Save(2000) error = %v", err)
	}
	if got, err := store.Get(ctx); err != nil || got != 2000 {
		t.Fatalf("Get() after second Save = (%d, %v), want (2000, nil) — Save must update, not insert a second row", got, err)
	}

	var rowCount int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM binlog_sync_timestamp").Scan(&rowCount); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rowCount != 1 {
		t.Errorf("binlog_sync_timestamp has %d rows, want exactly 1", rowCount)
	}
}
