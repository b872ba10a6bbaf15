package ratelimit

import (
	"context"
	"sync"
	"time"
)

// memoryPruneThreshold triggers removal of expired windows once the map grows past it.
const memoryPruneThreshold = 4096

type memoryEntry struct {
	window int64
	count  int
	expiry time.Time
}

// MemoryLimiter implements a fixed-window in-memory rate limiter.
type MemoryLimiter struct {
	mu       sync.Mutex
	counters map[string]*memoryEntry
}

// NewMemoryLimiter constructs a MemoryLimiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		counters: make(map[string]*memoryEntry),
	}
}

// Allow checks whether the request should be allowed in the current window.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error) {
	if limit <= 0 || key == "" {
		return Result{Allowed: true}, nil
	}
	windowIndex, reset := windowBounds(now, window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.counters) >= memoryPruneThreshold {
		l.prune(now)
	}
	entry := l.counters[key]
	if entry == nil {
		entry = &memoryEntry{window: windowIndex}
		l.counters[key] = entry
	}
	if entry.window != windowIndex {
		entry.window = windowIndex
		entry.count = 0
	}
	entry.expiry = reset
	if entry.count >= limit {
		return Result{Allowed: false, Remaining: 0, Reset: reset}, nil
	}
	entry.count++
	return Result{Allowed: true, Remaining: limit - entry.count, Reset: reset}, nil
}

func (l *MemoryLimiter) prune(now time.Time) {
	for key, entry := range l.counters {
		if !now.Before(entry.expiry) {
			delete(l.counters, key)
		}
	}
}

// windowBounds returns the window index containing now and the time the window ends.
func windowBounds(now time.Time, window time.Duration) (int64, time.Time) {
	if window < time.Second {
		window = time.Second
	}
	size := int64(window / time.Second)
	index := now.Unix() / size
	return index, time.Unix((index+1)*size, 0).UTC()
}
