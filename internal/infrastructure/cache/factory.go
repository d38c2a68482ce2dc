package cache

import (
	"context"
	"fmt"

	"github.com/erp/reportdispatch/internal/application/report"
	"github.com/erp/reportdispatch/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LockFactoryOption is a functional option for NewDispatchLock
type LockFactoryOption func(*lockFactory)

type lockFactory struct {
	logger                *zap.Logger
	allowInMemoryFallback bool
	key                   string
}

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) LockFactoryOption {
	return func(f *lockFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory lock when Redis is unavailable.
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) LockFactoryOption {
	return func(f *lockFactory) {
		f.allowInMemoryFallback = allow
	}
}

// WithLockKey overrides the Redis key. An empty key keeps DefaultLockKey.
func WithLockKey(key string) LockFactoryOption {
	return func(f *lockFactory) {
		if key != "" {
			f.key = key
		}
	}
}

// NewDispatchLock returns a Redis lock when Redis is enabled and reachable, otherwise an in-memory lock.
// The returned client is nil for in-memory locks; callers close it on shutdown.
func NewDispatchLock(ctx context.Context, cfg config.RedisConfig, opts ...LockFactoryOption) (report.DispatchLock, *redis.Client, error) {
	f := &lockFactory{logger: zap.NewNop(), allowInMemoryFallback: true, key: DefaultLockKey}
	for _, opt := range opts {
		opt(f)
	}

	if !cfg.Enabled {
		f.logger.Info("Using in-memory dispatch lock")
		return NewInMemoryDispatchLock(), nil, nil
	}

	client, err := NewRedisClient(ctx, RedisConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		if !f.allowInMemoryFallback {
			return nil, nil, fmt.Errorf("redis dispatch lock: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory dispatch lock", zap.Error(err))
		return NewInMemoryDispatchLock(), nil, nil
	}

	f.logger.Info("Using Redis dispatch lock",
		zap.String("addr", client.Options().Addr),
		zap.String("key", f.key))
	return NewRedisDispatchLock(client, f.key), client, nil
}
