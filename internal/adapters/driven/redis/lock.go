package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/asset-sync/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*Lock)(nil)

// DefaultPrefix namespaces lock keys.
const DefaultPrefix = "asset-sync:lock:"

var (
	// ErrLockNotHeld is returned by Extend when this instance does not own the lock.
	ErrLockNotHeld = errors.New("lock not held by this instance")

	// ErrInvalidTTL is returned for non-positive TTLs. A lock without expiry
	// would outlive a crashed holder.
	ErrInvalidTTL = errors.New("lock ttl must be positive")
)

// Lock implements DistributedLock using SET NX PX. Every instance has its
// own owner token, so only the holder can release or extend a lock.
type Lock struct {
	client  redis.UniversalClient
	prefix  string
	ownerID string
}

// Option configures a Lock.
type Option func(*Lock)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(l *Lock) { l.prefix = prefix }
}

// WithOwnerID overrides the generated owner token.
func WithOwnerID(id string) Option {
	return func(l *Lock) { l.ownerID = id }
}

// NewLock creates a Redis-backed distributed lock.
func NewLock(client redis.UniversalClient, opts ...Option) *Lock {
	l := &Lock{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(l)
	}
	if l.ownerID == "" {
		l.ownerID = generateOwnerID()
	}
	return l
}

// generateOwnerID returns hostname:pid:random.
func generateOwnerID() string {
	hostname, _ := os.Hostname()
	randomBytes := make([]byte, 8)
	_, _ = rand.Read(randomBytes)
	return fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), hex.EncodeToString(randomBytes))
}

func (l *Lock) key(name string) string {
	return l.prefix + name
}

// Acquire takes the lock if nobody holds it. It does not block.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, ErrInvalidTTL
	}
	ok, err := l.client.SetNX(ctx, l.key(name), l.ownerID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return ok, nil
}

// compareAndDelete deletes KEYS[1] only while it still holds ARGV[1].
var compareAndDelete = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

// Release frees the lock if this instance holds it. Releasing an expired
// lock or one owned by someone else is a no-op.
func (l *Lock) Release(ctx context.Context, name string) error {
	err := compareAndDelete.Run(ctx, l.client, []string{l.key(name)}, l.ownerID).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

// compareAndExpire resets the TTL of KEYS[1] only while it still holds ARGV[1].
var compareAndExpire = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	end
	return 0
`)

// Extend pushes out the expiry of a lock this instance holds.
func (l *Lock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	n, err := compareAndExpire.Run(ctx, l.client, []string{l.key(name)}, l.ownerID, ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("extend lock %s: %w", name, ErrLockNotHeld)
	}
	return nil
}

// Ping checks if the Redis backend is healthy.
func (l *Lock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// OwnerID returns this instance's owner token.
func (l *Lock) OwnerID() string {
	return l.ownerID
}
