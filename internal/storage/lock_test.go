package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestCache creates a RedisCache backed by a test Redis instance
func setupTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return NewRedisCacheFromClient(client), mr
}

func TestRunLockExcludesSecondHolder(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	first := NewRunLock(cache, time.Minute)
	second := NewRunLock(cache, time.Minute)

	require.NoError(t, first.Acquire(ctx))

	err := second.Acquire(ctx)
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, first.Release(ctx))
	assert.NoError(t, second.Acquire(ctx))
}

func TestRunLockReacquireAfterRelease(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	lock := NewRunLock(cache, time.Minute)

	require.NoError(t, lock.Acquire(ctx))
	require.NoError(t, lock.Release(ctx))
	assert.NoError(t, lock.Acquire(ctx))
}

func TestRunLockExpiresWithTTL(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	wedged := NewRunLock(cache, time.Minute)
	require.NoError(t, wedged.Acquire(ctx))

	// The holder crashed; the TTL frees the lock
	mr.FastForward(2 * time.Minute)

	next := NewRunLock(cache, time.Minute)
	assert.NoError(t, next.Acquire(ctx))
}

func TestRunLockReleaseIsTokenScoped(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	stale := NewRunLock(cache, time.Minute)
	require.NoError(t, stale.Acquire(ctx))

	// The stale holder's lock expires and another pass takes over
	mr.FastForward(2 * time.Minute)
	current := NewRunLock(cache, time.Minute)
	require.NoError(t, current.Acquire(ctx))

	// The stale holder releasing must not free the new holder's lock
	require.NoError(t, stale.Release(ctx))

	err := NewRunLock(cache, time.Minute).Acquire(ctx)
	assert.ErrorIs(t, err, ErrLockHeld)
}
