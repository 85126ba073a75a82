package redisclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("booking lock not acquired")

	// ErrLockUnavailable means the lock backend itself failed (down,
	// unreachable), as opposed to the lock being held by someone else.
	// Callers that only use the lock to shed contention can proceed without it.
	ErrLockUnavailable = errors.New("booking lock backend unavailable")
)

// Locker serializes the critical section of a booking for one
// (doctor, date, slot) tuple across all api-server instances.
type Locker interface {
	WithBookingLock(ctx context.Context, doctorID uuid.UUID, date, slot string, fn func(ctx context.Context) error) error
}

type redisBookingLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBookingLocker creates a locker that uses a per-tuple Redis key.
func NewRedisBookingLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisBookingLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisBookingLocker) WithBookingLock(ctx context.Context, doctorID uuid.UUID, date, slot string, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:booking:%s:%s:%s", doctorID.String(), date, slot)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLockUnavailable, err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisBookingLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release booking lock: %w", err)
	}
	return nil
}

// localLocker serializes bookings per tuple inside a single process. Used by
// tests and single-instance deployments running without Redis.
type localLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocalLocker() Locker {
	return &localLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *localLocker) WithBookingLock(ctx context.Context, doctorID uuid.UUID, date, slot string, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("%s:%s:%s", doctorID.String(), date, slot)

	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()

	return fn(ctx)
}
