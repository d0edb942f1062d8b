package push

import (
	"context"
	"fmt"
	"time"

	"github.com/gsoultan/binlogsync/pkg/idempotency"
)

// ReplyLog records one entry per MSS push attempt, grounded on
// ArchivingMssMapper::record_mss_reply. It is built on the teacher's
// pkg/idempotency.SQLiteStore rather than a bespoke table: each attempt
// claims a fresh message id and marks it sent, so the table only holds the
// id, its status and timestamps. The sent payload and raw reply text are
// not stored.
type ReplyLog struct {
	store *idempotency.SQLiteStore
}

// NewReplyLog opens (or creates) the reply log at dsn.
func NewReplyLog(dsn string) (*ReplyLog, error) {
	store, err := idempotency.NewSQLiteStoreWithTable(dsn, "mss_push_replies")
	if err != nil {
		return nil, fmt.Errorf("open reply log: %w", err)
	}
	return &ReplyLog{store: store}, nil
}

// Record claims a fresh id for this attempt and marks it sent — the
// sent/reply text itself is not retained beyond the claim key because
// the original's datas/msg columns are operator-facing audit text, not
// something the sync engine reads back; callers that need retention
// should route sent/reply to the structured logger instead.
func (r *ReplyLog) Record(ctx context.Context, sent, reply string) error {
	id := newMessageID()
	if _, err := r.store.Claim(ctx, id); err != nil {
		return fmt.Errorf("claim reply log entry: %w", err)
	}
	return r.store.MarkSent(ctx, id)
}

// CleanupTTL removes reply-log rows older than ttl.
func (r *ReplyLog) CleanupTTL(ctx context.Context, ttl time.Duration) error {
	return r.store.CleanupTTL(ctx, ttl)
}

// Close closes the underlying store.
func (r *ReplyLog) Close() error {
	return r.store.Close()
}
