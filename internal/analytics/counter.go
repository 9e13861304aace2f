// Package analytics provides item view tracking.
package analytics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Flusher defines the interface for persisting view counts.
type Flusher interface {
	FlushViews(ctx context.Context, counts map[int64]int64) error
}

// Config holds configuration for the ViewCounter.
type Config struct {
	FlushInterval time.Duration // How often to flush accumulated counts
	BatchSize     int           // Flush when this many pending views accumulated
	ChannelBuffer int           // Size of the view channel buffer
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		FlushInterval: 10 * time.Second,
		BatchSize:     100,
		ChannelBuffer: 10000,
	}
}

// ViewCounter provides non-blocking, batched view counting.
type ViewCounter struct {
	flusher Flusher
	cfg     Config

	viewChan     chan int64
	counts       map[int64]int64
	countsMu     sync.Mutex
	pendingCount int64 // total pending views (for batch size check)

	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
	stopped  atomic.Bool
}

// NewViewCounter creates a new ViewCounter instance.
func NewViewCounter(cfg Config, flusher Flusher) *ViewCounter {
	if cfg.ChannelBuffer <= 0 {
		cfg.ChannelBuffer = DefaultConfig().ChannelBuffer
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultConfig().FlushInterval
	}

	c := &ViewCounter{
		flusher:  flusher,
		cfg:      cfg,
		viewChan: make(chan int64, cfg.ChannelBuffer),
		counts:   make(map[int64]int64),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}

	go c.run()
	return c
}

// RecordView records a view for an item (non-blocking).
func (c *ViewCounter) RecordView(itemID int64) {
	if c.stopped.Load() {
		return
	}

	// Non-blocking send - drop if buffer is full
	select {
	case c.viewChan <- itemID:
	default:
		// Channel full, view dropped (acceptable for analytics)
	}
}

// Stop stops the view counter and flushes remaining counts.
func (c *ViewCounter) Stop() {
	c.stopOnce.Do(func() {
		c.stopped.Store(true)
		close(c.stopChan)
		<-c.doneChan
	})
}

// GetPendingStats returns a snapshot of pending (unflushed) view counts.
func (c *ViewCounter) GetPendingStats() map[int64]int64 {
	c.countsMu.Lock()
	defer c.countsMu.Unlock()

	result := make(map[int64]int64, len(c.counts))
	for k, v := range c.counts {
		result[k] = v
	}
	return result
}

// run is the main loop that processes views and flushes periodically.
func (c *ViewCounter) run() {
	defer close(c.doneChan)

	ticker := time.NewTicker(c.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case itemID := <-c.viewChan:
			c.countsMu.Lock()
			c.counts[itemID]++
			c.pendingCount++
			shouldFlush := int(c.pendingCount) >= c.cfg.BatchSize
			c.countsMu.Unlock()

			if shouldFlush {
				c.flush()
			}

		case <-ticker.C:
			c.flush()

		case <-c.stopChan:
			// Drain remaining views from channel
			c.drainChannel()
			// Final flush
			c.flush()
			return
		}
	}
}

// drainChannel processes any remaining views in the channel.
func (c *ViewCounter) drainChannel() {
	for {
		select {
		case itemID := <-c.viewChan:
			c.countsMu.Lock()
			c.counts[itemID]++
			c.pendingCount++
			c.countsMu.Unlock()
		default:
			return
		}
	}
}

// flush sends accumulated counts to the flusher and resets.
func (c *ViewCounter) flush() {
	c.countsMu.Lock()
	if len(c.counts) == 0 {
		c.countsMu.Unlock()
		return
	}

	// Swap maps for minimal lock time
	toFlush := c.counts
	c.counts = make(map[int64]int64)
	c.pendingCount = 0
	c.countsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Fire and forget - errors are logged by the flusher
	_ = c.flusher.FlushViews(ctx, toFlush)
}
