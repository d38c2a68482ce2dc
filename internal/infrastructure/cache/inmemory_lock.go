package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryDispatchLock serializes dispatch runs within one process.
// This is suitable for single-instance deployments and testing.
type InMemoryDispatchLock struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	now       func() time.Time
}

// NewInMemoryDispatchLock creates a new in-memory dispatch lock
func NewInMemoryDispatchLock() *InMemoryDispatchLock {
	return &InMemoryDispatchLock{now: time.Now}
}

// TryAcquire takes the lock unless it is held and not yet expired
func (l *InMemoryDispatchLock) TryAcquire(_ context.Context, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.token != "" && now.Before(l.expiresAt) {
		return "", false, nil
	}
	l.token = uuid.NewString()
	l.expiresAt = now.Add(ttl)
	return l.token, true, nil
}

// Release frees the lock if token still owns it
func (l *InMemoryDispatchLock) Release(_ context.Context, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if token != "" && token == l.token {
		l.token = ""
	}
	return nil
}
