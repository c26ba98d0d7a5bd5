// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// RedisLimiter keeps one sorted set per key, scored by request time in
// milliseconds, so every process behind the load balancer shares the counts.
type RedisLimiter struct {
	client redis.UniversalClient
	cfg    Config
	now    func() time.Time
}

// NewRedis creates a limiter backed by client.
func NewRedis(client redis.UniversalClient, cfg Config) *RedisLimiter {
	return &RedisLimiter{client: client, cfg: cfg.normalized(), now: time.Now}
}

// NewRedisFromURL parses a redis:// URL and pings the server.
func NewRedisFromURL(ctx context.Context, rawURL string, cfg Config) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return NewRedis(client, cfg), nil
}

// Close releases the underlying client.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

// WithClock replaces the time source. Intended for tests.
func (l *RedisLimiter) WithClock(now func() time.Time) *RedisLimiter {
	l.now = now
	return l
}

// allowScript trims the window, counts it and records the request when it
// fits, all in one round trip. It returns the count before the request and
// the score of the oldest entry, or -1 when the window is empty.
var allowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window_start = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
local count = redis.call('ZCARD', key)
local oldest = -1
local first = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if #first > 0 then
	oldest = tonumber(first[2])
end

if count < limit then
	redis.call('ZADD', key, now, ARGV[5])
	redis.call('PEXPIRE', key, ttl)
end

return {count, oldest}
`)

// Allow records a request for key if it fits in the window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now()
	windowStart := now.Add(-l.cfg.Window).UnixMilli()

	vals, err := allowScript.Run(ctx, l.client, []string{keyPrefix + key},
		now.UnixMilli(),
		windowStart,
		l.cfg.MaxRequests,
		l.cfg.Window.Milliseconds(),
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("evaluating rate limit window: %w", err)
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("unexpected rate limit reply: %v", vals)
	}

	var oldest time.Time
	if vals[1] >= 0 {
		oldest = time.UnixMilli(vals[1])
	}
	return result(l.cfg, int(vals[0]), oldest, now), nil
}
