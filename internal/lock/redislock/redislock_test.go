package redislock_test

import (
	"os"
	"testing"
	"time"

	"github.com/Houeta/price-radar/internal/lock/redislock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("PR_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client, err := redislock.NewClient(t.Context(), addr)
	if err != nil {
		t.Skip("Redis not available, skipping integration test")
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestLock_SingleHolder(t *testing.T) {
	ctx := t.Context()
	client := newClient(t)
	key := "test:price-radar:" + uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, key) })

	first := redislock.New(client, key, time.Minute)
	second := redislock.New(client, key, time.Minute)

	ok, err := first.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// Only the owner may release.
	require.ErrorIs(t, second.Unlock(ctx), redislock.ErrNotHeld)
	require.NoError(t, first.Unlock(ctx))

	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, second.Unlock(ctx))
}

func TestLock_Expires(t *testing.T) {
	ctx := t.Context()
	client := newClient(t)
	key := "test:price-radar:" + uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, key) })

	crashed := redislock.New(client, key, 50*time.Millisecond)
	ok, err := crashed.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	next := redislock.New(client, key, time.Minute)
	require.Eventually(t, func() bool {
		acquired, lockErr := next.TryLock(ctx)
		return lockErr == nil && acquired
	}, 2*time.Second, 20*time.Millisecond)
}

func TestNewClient_Unreachable(t *testing.T) {
	_, err := redislock.NewClient(t.Context(), "127.0.0.1:1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redislock.NewClient")
}
