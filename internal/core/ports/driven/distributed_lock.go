package driven

import (
	"context"
	"time"
)

// DistributedLock coordinates work across instances: one scheduler tick at a
// time, and at most one sync run per integration.
type DistributedLock interface {
	// Acquire tries to take a named lock for ttl.
	// Returns false without error when another holder has it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release drops a named lock. Safe to call when the lock is not held.
	Release(ctx context.Context, name string) error

	// Extend pushes out the expiry of a lock this instance holds.
	// PostgreSQL advisory locks have no TTL, so extension is a no-op there.
	Extend(ctx context.Context, name string, ttl time.Duration) error

	// Ping checks the lock backend is reachable.
	Ping(ctx context.Context) error
}
