// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package ratelimit implements sliding-window request limiting per client key.
package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of a single Allow call.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Reset      time.Time     // when the oldest counted request leaves the window
	RetryAfter time.Duration // zero when Allowed
}

// Limiter counts requests per key within a sliding window.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Config holds the window parameters shared by all limiter implementations.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

func (c Config) normalized() Config {
	if c.MaxRequests <= 0 {
		c.MaxRequests = 100
	}
	if c.Window <= 0 {
		c.Window = time.Hour
	}
	return c
}

func result(cfg Config, count int, oldest, now time.Time) Result {
	r := Result{
		Limit: cfg.MaxRequests,
		Reset: oldest.Add(cfg.Window),
	}
	if count < cfg.MaxRequests {
		r.Allowed = true
		r.Remaining = cfg.MaxRequests - count - 1
		if count == 0 {
			r.Reset = now.Add(cfg.Window)
		}
		return r
	}

	r.RetryAfter = r.Reset.Sub(now)
	if r.RetryAfter < time.Second {
		r.RetryAfter = time.Second
	}
	return r
}
