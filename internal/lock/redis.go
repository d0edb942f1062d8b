// Package lock implements the single-holder distributed mutex the binlog
// sync run acquires before reading the watermark, grounded on
// utils/redis.rs's RedisLock (the teacher's own pkg/state/redis.go is a
// plain KV wrapper, not a lock, so the mutex semantics come from
// original_source instead, reusing the teacher's go-redis/v9 client).
package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript is the classic compare-and-delete: only the holder whose
// token still matches may delete the key.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

// Handle is a held lock, returned by TryAcquire/AcquireWithRetry.
type Handle struct {
	Key   string
	Token string
}

// RedisLock is a distributed mutex backed by a Redis SET NX PX.
type RedisLock struct {
	client *redis.Client
}

// NewRedisLock builds a RedisLock over an existing client.
func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

// TryAcquire attempts a single atomic SET key token PX ttl NX. A nil,nil
// result means the key is already held by someone else.
func (l *RedisLock) TryAcquire(ctx context.Context, key string, ttl time.Duration) (*Handle, error) {
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &Handle{Key: key, Token: token}, nil
}

// AcquireWithRetry polls TryAcquire every interval until budget elapses.
func (l *RedisLock) AcquireWithRetry(ctx context.Context, key string, ttl, budget, interval time.Duration) (*Handle, error) {
	deadline := time.Now().Add(budget)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		h, err := l.TryAcquire(ctx, key, ttl)
		if err != nil {
			return nil, err
		}
		if h != nil {
			return h, nil
		}
		if time.Now().After(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Release runs the compare-and-delete script, returning true only if this
// handle's token still matched — i.e. no other holder took over in between.
func (l *RedisLock) Release(ctx context.Context, h *Handle) (bool, error) {
	if h == nil {
		return false, nil
	}
	res, err := l.client.Eval(ctx, releaseScript, []string{h.Key}, h.Token).Result()
	if err != nil {
		return false, err
	}
	n, _ := res.(int64)
	return n > 0, nil
}
