package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLock(t *testing.T) *RedisLock {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLock(client)
}

func TestTryAcquireThenSecondCallerBlocked(t *testing.T) {
	l := newTestLock(t)
	ctx := context.Background()

	h1, err := l.TryAcquire(ctx, "binlogsync:run", time.Minute)
	if err != nil {
		t.Fatalf("TryAcquire() error = %v", err)
	}
	if h1 == nil {
		t.Fatal("TryAcquire() returned nil handle, want a held lock")
	}

	h2, err := l.TryAcquire(ctx, "binlogsync:run", time.Minute)
	if err != nil {
		t.Fatalf("second TryAcquire() error = %v", err)
	}
	if h2 != nil {
		t.Error("second TryAcquire() on a held key returned a handle, want nil (already held)")
	}
}

func TestReleaseThenReacquire(t *testing.T) {
	l := newTestLock(t)
	ctx := context.Background()

	h1, err := l.TryAcquire(ctx, "binlogsync:run", time.Minute)
	if err != nil || h1 == nil {
		t.Fatalf("TryAcquire() = (%v, %v)", h1, err)
	}

	ok, err := l.Release(ctx, h1)
	if err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if !ok {
		t.Error("Release() of the current holder's handle = false, want true")
	}

	h2, err := l.TryAcquire(ctx, "binlogsync:run", time.Minute)
	if err != nil {
		t.Fatalf("re-acquire TryAcquire() error = %v", err)
	}
	if h2 == nil {
		t.Error("TryAcquire() after Release() returned nil, want a fresh handle")
	}
}

func TestReleaseWithStaleTokenIsNoop(t *testing.T) {
	l := newTestLock(t)
	ctx := context.Background()

	h1, err := l.TryAcquire(ctx, "binlogsync:run", time.Minute)
	if err != nil || h1 == nil {
		t.Fatalf("TryAcquire() = (%v, %v)", h1, err)
	}

	stale := &Handle{Key: h1.Key, Token: "not-the-real-token"}
	ok, err := l.Release(ctx, stale)
	if err != nil {
		t.Fatalf("Release(stale) error = %v", err)
	}
	if ok {
		t.Error("Release() with a mismatched token = true, want false (compare-and-delete must not fire)")
	}
}

func TestAcquireWithRetrySucceedsAfterReleaseWithinBudget(t *testing.T) {
	l := newTestLock(t)
	ctx := context.Background()

	h1, err := l.TryAcquire(ctx, "binlogsync:run", time.Minute)
	if err != nil || h1 == nil {
		t.Fatalf("TryAcquire() = (%v, %v)", h1, err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		l.Release(ctx, h1)
	}()

	h2, err := l.AcquireWithRetry(ctx, "binlogsync:run", time.Minute, 500*time.Millisecond, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("AcquireWithRetry() error = %v", err)
	}
	if h2 == nil {
		t.Error("AcquireWithRetry() returned nil within budget after the holder released, want a handle")
	}
}

func TestAcquireWithRetryTimesOutWhenStillHeld(t *testing.T) {
	l := newTestLock(t)
	ctx := context.Background()

	h1, err := l.TryAcquire(ctx, "binlogsync:run", time.Minute)
	if err != nil || h1 == nil {
		t.Fatalf("TryAcquire() = (%v, %v)", h1, err)
	}

	h2, err := l.AcquireWithRetry(ctx, "binlogsync:run", time.Minute, 50*time.Millisecond, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("AcquireWithRetry() error = %v", err)
	}
	if h2 != nil {
		t.Error("AcquireWithRetry() returned a handle while the key is still held, want nil after budget exhausted")
	}
}
