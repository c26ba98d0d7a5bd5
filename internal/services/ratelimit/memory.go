// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps request timestamps in process memory.
// Counters are not shared between processes.
type MemoryLimiter struct {
	cfg  Config
	now  func() time.Time
	mu   sync.Mutex
	hits map[string][]time.Time
}

// NewMemory creates an in-process limiter.
func NewMemory(cfg Config) *MemoryLimiter {
	return &MemoryLimiter{
		cfg:  cfg.normalized(),
		now:  time.Now,
		hits: make(map[string][]time.Time),
	}
}

// WithClock replaces the time source. Intended for tests.
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	return l
}

// Allow records a request for key if it fits in the window.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-l.cfg.Window)

	kept := l.hits[key][:0]
	for _, ts := range l.hits[key] {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}

	var oldest time.Time
	if len(kept) > 0 {
		oldest = kept[0]
	}

	res := result(l.cfg, len(kept), oldest, now)
	if res.Allowed {
		kept = append(kept, now)
	}

	if len(kept) == 0 {
		delete(l.hits, key)
	} else {
		l.hits[key] = kept
	}
	return res, nil
}

// Cleanup drops keys whose requests all left the window.
func (l *MemoryLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	windowStart := l.now().Add(-l.cfg.Window)
	for key, hits := range l.hits {
		if len(hits) == 0 || !hits[len(hits)-1].After(windowStart) {
			delete(l.hits, key)
		}
	}
}

// Keys returns the number of tracked keys.
func (l *MemoryLimiter) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hits)
}
