// Package locker serializes read-modify-write sequences against the store.
package locker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bsm/redislock"
)

var ErrNotObtained = errors.New("lock not obtained")

// Locker guards a critical section. The returned release func must be called
// exactly once; further calls are no-ops.
type Locker interface {
	Obtain(ctx context.Context) (release func(), err error)
}

// Local is an in-process Locker backed by a one-slot semaphore, so waiting
// callers give up when their context ends.
type Local struct {
	sem chan struct{}
}

func NewLocal() *Local {
	return &Local{sem: make(chan struct{}, 1)}
}

func (l *Local) Obtain(ctx context.Context) (func(), error) {
	select {
	case l.sem <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-l.sem }) }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrNotObtained, ctx.Err())
	}
}

// Redis is a Locker shared by every process talking to the same Redis. The
// lock is refreshed every ttl/2 while held and expires after ttl once its
// holder dies.
type Redis struct {
	client *redislock.Client
	key    string
	ttl    time.Duration
	retry  time.Duration
	logger *slog.Logger
}

// NewRedis builds a Redis locker on key. client is usually a *redis.Client.
func NewRedis(client redislock.RedisClient, key string, ttl time.Duration, logger *slog.Logger) *Redis {
	return &Redis{
		client: redislock.New(client),
		key:    key,
		ttl:    ttl,
		retry:  50 * time.Millisecond,
		logger: logger.With("component", "redis_locker"),
	}
}

func (r *Redis) Obtain(ctx context.Context) (func(), error) {
	attempts := int(r.ttl / r.retry)
	if attempts < 1 {
		attempts = 1
	}
	lock, err := r.client.Obtain(ctx, r.key, r.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(r.retry), attempts),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrNotObtained, r.key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain %s: %w", r.key, err)
	}

	stop := keepAlive(r.ttl/2, func(ctx context.Context) error {
		return lock.Refresh(ctx, r.ttl, nil)
	}, func(err error) {
		r.logger.Error("failed to refresh lock", "key", r.key, "error", err)
	})

	var once sync.Once
	release := func() {
		once.Do(func() {
			stop()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				r.logger.Warn("failed to release lock", "key", r.key, "error", err)
			}
		})
	}
	return release, nil
}

// keepAlive calls refresh every interval until stop is called. Failures are
// reported to onErr and retried on the next tick. stop waits for the loop to
// exit.
func keepAlive(interval time.Duration, refresh func(context.Context) error, onErr func(error)) (stop func()) {
	if interval <= 0 {
		interval = time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := refresh(ctx); err != nil && ctx.Err() == nil {
					onErr(err)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
