package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a fixed-window rate limiter. Allow reports whether the caller
// may proceed and, when denied, how long until the window reopens.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

type fixedWindow struct {
	count       int
	windowStart time.Time
}

type localFixedWindowLimiter struct {
	mu      sync.Mutex
	store   map[string]*fixedWindow
	cleanup time.Time
}

// NewLocalFixedWindowLimiter returns a process-local limiter backed by a
// mutex-guarded map. Best effort under multi-process deployment; suitable
// for abuse damping, not a hard security boundary.
func NewLocalFixedWindowLimiter() Limiter {
	return &localFixedWindowLimiter{
		store:   make(map[string]*fixedWindow),
		cleanup: time.Now().Add(time.Minute),
	}
}

func (l *localFixedWindowLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.cleanup) {
		for k, w := range l.store {
			if now.Sub(w.windowStart) > window {
				delete(l.store, k)
			}
		}
		l.cleanup = now.Add(time.Minute)
	}

	w, ok := l.store[key]
	if !ok || now.Sub(w.windowStart) >= window {
		l.store[key] = &fixedWindow{count: 1, windowStart: now}
		return true, 0, nil
	}
	if w.count < limit {
		w.count++
		return true, 0, nil
	}
	retryAfter := window - now.Sub(w.windowStart)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return false, retryAfter, nil
}
