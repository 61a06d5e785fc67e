package locking

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("KITCHENLEDGER_TEST_REDIS")
	if addr == "" {
		t.Skip("KITCHENLEDGER_TEST_REDIS not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisLockerExclusive(t *testing.T) {
	rdb := redisClient(t)
	ctx := context.Background()

	first := NewRedisLocker(rdb, WithTTL(2*time.Second))
	second := NewRedisLocker(rdb, WithRetry(10*time.Millisecond, 3))

	release, err := first.Acquire(ctx, "ING-redis-test")
	require.NoError(t, err)

	_, err = second.Acquire(ctx, "ING-redis-test")
	assert.ErrorIs(t, err, ErrNotObtained)

	release()
	again, err := second.Acquire(ctx, "ING-redis-test")
	require.NoError(t, err)
	again()
}
