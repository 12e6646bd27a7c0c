package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	defaultLimit      = 100
	defaultWindow     = 15 * time.Minute
	defaultSweepEvery = 5 * time.Minute
)

// Limiter config with sensible defaults
type Config struct {
	// Max requests per key within one window
	Limit int

	// Fixed window length
	Window time.Duration

	// How often fully elapsed windows are evicted
	SweepEvery time.Duration

	// Clock override for tests. Defaults to time.Now
	Now func() time.Time
}

type counter struct {
	windowStart time.Time
	count       int
}

// Limiter is a process-local fixed-window counter keyed by principal id or
// caller IP. Explicitly constructed and injected into the middleware, no
// package-level state, so tests run isolated and per-instance behavior in a
// multi-instance deployment is explicit.
type Limiter struct {
	mu       sync.Mutex
	counters map[string]*counter

	limit      int
	window     time.Duration
	sweepEvery time.Duration
	now        func() time.Time
}

func New(cfg Config) *Limiter {
	if cfg.Limit <= 0 {
		cfg.Limit = defaultLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultWindow
	}
	if cfg.SweepEvery <= 0 {
		cfg.SweepEvery = defaultSweepEvery
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Limiter{
		counters:   make(map[string]*counter),
		limit:      cfg.Limit,
		window:     cfg.Window,
		sweepEvery: cfg.SweepEvery,
		now:        cfg.Now,
	}
}

// Allow records one request for key and reports whether it fits the window.
// When the limit is exceeded retryAfter is the time left in the window.
// Increment and compare happen under one lock so concurrent requests from
// the same principal can't undercount.
func (l *Limiter) Allow(key string) (ok bool, retryAfter time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	c, found := l.counters[key]
	if !found || now.Sub(c.windowStart) >= l.window {
		l.counters[key] = &counter{windowStart: now, count: 1}
		return true, 0
	}

	c.count++
	if c.count > l.limit {
		// Cap so sustained abuse can't grow the counter without bound.
		// limit+1 still reads as "over the limit" until the window elapses
		c.count = l.limit + 1
		return false, c.windowStart.Add(l.window).Sub(now)
	}

	return true, 0
}

// Run sweeps elapsed windows until ctx is cancelled, bounding memory growth
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *Limiter) sweep() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, c := range l.counters {
		if now.Sub(c.windowStart) >= l.window {
			delete(l.counters, key)
		}
	}
}

// Len reports the number of tracked keys
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.counters)
}
