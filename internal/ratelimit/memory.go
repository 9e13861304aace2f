package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter implements an in-memory sliding window rate limiter.
type MemoryLimiter struct {
	config  Config
	entries sync.Map // map[string]*entry

	// For cleanup
	done chan struct{}
	wg   sync.WaitGroup
}

// entry holds the request timestamps for a single identifier.
// Timestamps are appended in order, so expired ones form a prefix.
type entry struct {
	mu         sync.Mutex
	timestamps []time.Time
}

// prune drops timestamps at or before windowStart and returns how many remain.
func (e *entry) prune(windowStart time.Time) int {
	i := 0
	for i < len(e.timestamps) && !e.timestamps[i].After(windowStart) {
		i++
	}
	if i > 0 {
		e.timestamps = append(e.timestamps[:0], e.timestamps[i:]...)
	}
	return len(e.timestamps)
}

// NewMemoryLimiter creates a new in-memory rate limiter.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	if cfg.Requests <= 0 {
		cfg.Requests = DefaultConfig().Requests
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultConfig().Window
	}

	m := &MemoryLimiter{
		config: cfg,
		done:   make(chan struct{}),
	}

	// Start cleanup goroutine
	m.wg.Add(1)
	go m.cleanupLoop()

	return m
}

// Allow checks if a request from the given identifier is allowed.
func (m *MemoryLimiter) Allow(ctx context.Context, identifier string) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	now := time.Now()
	windowStart := now.Add(-m.config.Window)

	entryVal, _ := m.entries.LoadOrStore(identifier, &entry{
		timestamps: make([]time.Time, 0, m.config.Requests),
	})
	e := entryVal.(*entry)

	e.mu.Lock()
	defer e.mu.Unlock()

	count := e.prune(windowStart)

	// When the oldest request will fall out of the window
	var resetAfter time.Duration
	if count > 0 {
		resetAfter = e.timestamps[0].Add(m.config.Window).Sub(now)
		if resetAfter < 0 {
			resetAfter = 0
		}
	}

	if count >= m.config.Requests {
		return &Result{
			Allowed:    false,
			Remaining:  0,
			ResetAfter: resetAfter,
			RetryAfter: resetAfter,
			Limit:      m.config.Requests,
		}, nil
	}

	e.timestamps = append(e.timestamps, now)

	return &Result{
		Allowed:    true,
		Remaining:  m.config.Requests - count - 1,
		ResetAfter: resetAfter,
		RetryAfter: 0,
		Limit:      m.config.Requests,
	}, nil
}

// Reset clears the rate limit state for an identifier.
func (m *MemoryLimiter) Reset(ctx context.Context, identifier string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m.entries.Delete(identifier)
	return nil
}

// Close releases resources held by the limiter.
func (m *MemoryLimiter) Close() error {
	close(m.done)
	m.wg.Wait()
	return nil
}

// cleanupLoop periodically removes expired entries.
func (m *MemoryLimiter) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.Window)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

// cleanup removes identifiers with no requests left in the window.
func (m *MemoryLimiter) cleanup() {
	windowStart := time.Now().Add(-m.config.Window)

	m.entries.Range(func(key, value interface{}) bool {
		e := value.(*entry)
		e.mu.Lock()
		remaining := e.prune(windowStart)
		e.mu.Unlock()

		if remaining == 0 {
			m.entries.Delete(key)
		}
		return true
	})
}
