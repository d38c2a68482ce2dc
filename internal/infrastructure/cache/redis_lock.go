// Package cache provides the dispatch run lock, backed by Redis or process memory.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultLockKey is the Redis key guarding scheduled report dispatch runs
const DefaultLockKey = "report-dispatch:run-lock"

// releaseScript deletes the lock only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisDispatchLock is a single-holder lock shared by every instance using the same Redis.
// The TTL bounds how long a crashed holder blocks other instances.
type RedisDispatchLock struct {
	client redis.UniversalClient
	key    string
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisDispatchLock creates a lock on key using an existing client
func NewRedisDispatchLock(client redis.UniversalClient, key string) *RedisDispatchLock {
	if key == "" {
		key = DefaultLockKey
	}
	return &RedisDispatchLock{client: client, key: key}
}

// TryAcquire sets the lock key to a fresh token if absent.
// Returns false without error when another holder owns it.
func (l *RedisDispatchLock) TryAcquire(ctx context.Context, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire dispatch lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release deletes the lock key if it still holds token
func (l *RedisDispatchLock) Release(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
		return fmt.Errorf("failed to release dispatch lock: %w", err)
	}
	return nil
}
