package locking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultTTL     = 10 * time.Second
	defaultBackoff = 50 * time.Millisecond
	keyPrefix      = "kitchenledger:lock:"
)

// RedisLocker is a Locker shared between processes writing the same store.
type RedisLocker struct {
	client  *redislock.Client
	ttl     time.Duration
	backoff time.Duration
	retries int
	logger  *zap.Logger
}

type RedisOption func(*RedisLocker)

func WithTTL(ttl time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

func WithRetry(backoff time.Duration, retries int) RedisOption {
	return func(l *RedisLocker) {
		l.backoff = backoff
		l.retries = retries
	}
}

func WithLogger(logger *zap.Logger) RedisOption {
	return func(l *RedisLocker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func NewRedisLocker(rdb redis.UniversalClient, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client:  redislock.New(rdb),
		ttl:     defaultTTL,
		backoff: defaultBackoff,
		retries: 200,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	ordered := normalizeKeys(keys)
	held := make([]*redislock.Lock, 0, len(ordered))

	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			// Release on a fresh context so a cancelled caller still frees its keys.
			if err := held[i].Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				l.logger.Warn("failed to release lock", zap.String("key", held[i].Key()), zap.Error(err))
			}
		}
	}

	for _, key := range ordered {
		lock, err := l.client.Obtain(ctx, keyPrefix+key, l.ttl, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.backoff), l.retries),
		})
		if errors.Is(err, redislock.ErrNotObtained) {
			release()
			return nil, fmt.Errorf("%w: %s", ErrNotObtained, key)
		}
		if err != nil {
			release()
			return nil, fmt.Errorf("obtain lock %s: %w", key, err)
		}
		held = append(held, lock)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		release()
	}, nil
}
