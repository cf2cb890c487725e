package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// runLockKey guards the valuation/performance/ranking pass. No two passes
// may run concurrently against the same portfolios.
const runLockKey = "pass:run_lock"

// ErrLockHeld is returned when another pass currently holds the run lock
var ErrLockHeld = fmt.Errorf("another pass is already running")

// RunLock is a Redis-backed exclusive lock with expiry. The TTL covers
// crashed holders: a wedged pass releases the lock when the TTL lapses.
type RunLock struct {
	cache *RedisCache
	token string
	ttl   time.Duration
}

// NewRunLock creates a run lock with the given TTL
func NewRunLock(cache *RedisCache, ttl time.Duration) *RunLock {
	return &RunLock{
		cache: cache,
		token: uuid.New().String(),
		ttl:   ttl,
	}
}

// Acquire takes the lock, or returns ErrLockHeld when another holder owns it
func (l *RunLock) Acquire(ctx context.Context) error {
	ok, err := l.cache.Client().SetNX(ctx, runLockKey, l.token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return ErrLockHeld
	}
	return nil
}

// releaseScript deletes the lock only when held by this token, so an
// expired-and-reacquired lock is never released by the old holder.
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// Release frees the lock if this instance still holds it
func (l *RunLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.cache.Client(), []string{runLockKey}, l.token).Err(); err != nil {
		return fmt.Errorf("failed to release run lock: %w", err)
	}
	return nil
}
