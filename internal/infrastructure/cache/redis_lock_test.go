package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/erp/reportdispatch/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redisClient connects to REDIS_ADDR or skips the test
func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisDispatchLock(t *testing.T) {
	client := redisClient(t)
	key := "test:dispatch-lock:" + uuid.NewString()
	ctx := context.Background()
	t.Cleanup(func() { client.Del(ctx, key) })

	first := NewRedisDispatchLock(client, key)
	second := NewRedisDispatchLock(client, key)

	token, ok, err := first.TryAcquire(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, token)

	_, ok, err = second.TryAcquire(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// releasing with a foreign token leaves the holder's key alone
	require.NoError(t, second.Release(ctx, uuid.NewString()))
	assert.Equal(t, int64(1), client.Exists(ctx, key).Val())

	require.NoError(t, first.Release(ctx, token))
	assert.Equal(t, int64(0), client.Exists(ctx, key).Val())

	token, ok, err = second.TryAcquire(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, second.Release(ctx, token))
}

func TestRedisDispatchLock_ExpiredHolderCannotReleaseSuccessor(t *testing.T) {
	client := redisClient(t)
	key := "test:dispatch-lock:" + uuid.NewString()
	ctx := context.Background()
	t.Cleanup(func() { client.Del(ctx, key) })

	lock := NewRedisDispatchLock(client, key)

	stale, ok, err := lock.TryAcquire(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		return client.Exists(ctx, key).Val() == 0
	}, 5*time.Second, 20*time.Millisecond)

	current, ok, err := lock.TryAcquire(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, lock.Release(ctx, stale))
	_, ok, err = lock.TryAcquire(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "successor must still hold the lock")

	require.NoError(t, lock.Release(ctx, current))
}

func TestRedisDispatchLock_ReleaseWithoutTokenIsNoop(t *testing.T) {
	lock := NewRedisDispatchLock(nil, "")
	assert.Equal(t, DefaultLockKey, lock.key)
	assert.NoError(t, lock.Release(context.Background(), ""))
}

func TestNewDispatchLock(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled redis uses in-memory lock", func(t *testing.T) {
		lock, client, err := NewDispatchLock(ctx, config.RedisConfig{})
		require.NoError(t, err)
		assert.Nil(t, client)
		assert.IsType(t, &InMemoryDispatchLock{}, lock)
	})

	unreachable := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	t.Run("unreachable redis falls back", func(t *testing.T) {
		lock, client, err := NewDispatchLock(ctx, unreachable)
		require.NoError(t, err)
		assert.Nil(t, client)
		assert.IsType(t, &InMemoryDispatchLock{}, lock)
	})

	t.Run("unreachable redis without fallback fails", func(t *testing.T) {
		_, _, err := NewDispatchLock(ctx, unreachable, WithInMemoryFallback(false))
		assert.ErrorContains(t, err, "failed to connect to Redis")
	})
}
