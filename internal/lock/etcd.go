package lock

import (
	"context"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"
)

// EtcdLock is an alternative C3 backend for a deployment that runs etcd
// rather than Redis. cmd/binlogsync does not construct it: the run lock
// there is always a RedisLock, and no config setting selects etcd. etcd's concurrency
// package is exactly the distributed-mutex primitive this component needs,
// the same role the teacher's pkg/state factory gives etcd as an
// alternative StateStore backend.
type EtcdLock struct {
	client  *clientv3.Client
	session *concurrency.Session
}

// EtcdHandle is a held etcd lock.
type EtcdHandle struct {
	mutex *concurrency.Mutex
}

// NewEtcdLock opens a session on client with the given TTL in seconds.
func NewEtcdLock(client *clientv3.Client, sessionTTLSeconds int) (*EtcdLock, error) {
	sess, err := concurrency.NewSession(client, concurrency.WithTTL(sessionTTLSeconds))
	if err != nil {
		return nil, err
	}
	return &EtcdLock{client: client, session: sess}, nil
}

// TryAcquire attempts a non-blocking lock using key as the etcd mutex
// prefix; no configured prefix is prepended to it.
func (l *EtcdLock) TryAcquire(ctx context.Context, key string, _ time.Duration) (*EtcdHandle, error) {
	mutex := concurrency.NewMutex(l.session, key)
	tryCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()

	if err := mutex.TryLock(tryCtx); err != nil {
		if err == concurrency.ErrLocked {
			return nil, nil
		}
		return nil, err
	}
	return &EtcdHandle{mutex: mutex}, nil
}

// Release unlocks the mutex, returning true on success.
func (l *EtcdLock) Release(ctx context.Context, h *EtcdHandle) (bool, error) {
	if h == nil {
		return false, nil
	}
	if err := h.mutex.Unlock(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Close releases the underlying session.
func (l *EtcdLock) Close() error {
	return l.session.Close()
}
