// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package ratelimit_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/services/ratelimit"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLimiter(t *testing.T, maxRequests int, window time.Duration) (*ratelimit.RedisLimiter, *fakeClock) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	l := ratelimit.NewRedis(client, ratelimit.Config{MaxRequests: maxRequests, Window: window}).WithClock(clock.Now)
	t.Cleanup(func() { _ = l.Close() })
	return l, clock
}

func TestRedisLimiter_AllowsUpToLimit(t *testing.T) {
	l, _ := newRedisLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := range 3 {
		res, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 3, res.Limit)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, time.Minute, res.RetryAfter)
}

func TestRedisLimiter_WindowSlides(t *testing.T) {
	l, clock := newRedisLimiter(t, 2, time.Minute)
	ctx := context.Background()

	_, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	clock.Advance(30 * time.Second)
	_, err = l.Allow(ctx, "k")
	require.NoError(t, err)

	res, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 30*time.Second, res.RetryAfter)

	clock.Advance(31 * time.Second)
	res, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestRedisLimiter_KeysAreIndependent(t *testing.T) {
	l, _ := newRedisLimiter(t, 1, time.Minute)
	ctx := context.Background()

	res, err := l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = l.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRedisLimiter_ConcurrentRequestsNeverExceedLimit(t *testing.T) {
	l, _ := newRedisLimiter(t, 10, time.Minute)
	ctx := context.Background()

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.Allow(ctx, "burst")
			if assert.NoError(t, err) && res.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), allowed.Load())
}

// Runs against a real server when TEST_REDIS_URL is set.
func TestRedisLimiter(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	l, err := ratelimit.NewRedisFromURL(ctx, url, ratelimit.Config{MaxRequests: 2, Window: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	key := "test-" + uuid.NewString()

	res, err := l.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)

	res, err = l.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = l.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Positive(t, res.RetryAfter)
}

func TestNewRedisFromURL_InvalidURL(t *testing.T) {
	_, err := ratelimit.NewRedisFromURL(context.Background(), "not a url", ratelimit.Config{})

	require.Error(t, err)
}
