// Package ratelimit provides the injectable request limiter applied to
// public and authentication routes. Implementations count requests per
// clientIP:routePrefix key over a fixed window.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether a keyed request may proceed. When it may not,
// retryAfter reports how long until the window resets.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a single-process fixed-window counter. It is not
// shared across server instances; horizontally scaled deployments should
// inject the Redis limiter instead.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string]*windowEntry
	done    chan struct{}
}

// NewMemory builds an in-process limiter allowing limit requests per
// window and starts a janitor that sweeps expired entries.
func NewMemory(limit int, window time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		limit:   limit,
		window:  window,
		entries: make(map[string]*windowEntry),
		done:    make(chan struct{}),
	}
	go l.janitor()
	return l
}

// Allow counts one request against key. Expired windows are swept lazily
// here as well as periodically by the janitor.
func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok || now.After(entry.resetAt) {
		l.entries[key] = &windowEntry{count: 1, resetAt: now.Add(l.window)}
		return true, 0, nil
	}
	if entry.count < l.limit {
		entry.count++
		return true, 0, nil
	}
	return false, entry.resetAt.Sub(now), nil
}

// Close stops the janitor.
func (l *MemoryLimiter) Close() {
	close(l.done)
}

func (l *MemoryLimiter) janitor() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for key, entry := range l.entries {
				if now.After(entry.resetAt) {
					delete(l.entries, key)
				}
			}
			l.mu.Unlock()
		}
	}
}
