package analytics

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// mockFlusher is a mock implementation of the Flusher interface.
type mockFlusher struct {
	mu     sync.Mutex
	counts map[int64]int64
	calls  int
}

func newMockFlusher() *mockFlusher {
	return &mockFlusher{
		counts: make(map[int64]int64),
	}
}

func (m *mockFlusher) FlushViews(_ context.Context, counts map[int64]int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for id, count := range counts {
		m.counts[id] += count
	}
	return nil
}

func (m *mockFlusher) getCounts() map[int64]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[int64]int64)
	for k, v := range m.counts {
		result[k] = v
	}
	return result
}

func TestViewCounter_RecordView(t *testing.T) {
	t.Run("records views for item", func(t *testing.T) {
		flusher := newMockFlusher()
		counter := NewViewCounter(Config{
			FlushInterval: 50 * time.Millisecond,
			BatchSize:     100,
		}, flusher)
		defer counter.Stop()

		counter.RecordView(101)
		counter.RecordView(101)
		counter.RecordView(202)

		// Wait for flush
		time.Sleep(100 * time.Millisecond)

		counts := flusher.getCounts()
		assert.Equal(t, int64(2), counts[101])
		assert.Equal(t, int64(1), counts[202])
	})

	t.Run("accumulates views between flushes", func(t *testing.T) {
		flusher := newMockFlusher()
		counter := NewViewCounter(Config{
			FlushInterval: 100 * time.Millisecond,
			BatchSize:     1000,
		}, flusher)
		defer counter.Stop()

		for i := 0; i < 100; i++ {
			counter.RecordView(101)
		}

		// Wait for flush
		time.Sleep(150 * time.Millisecond)

		counts := flusher.getCounts()
		assert.Equal(t, int64(100), counts[101])
	})

	t.Run("flushes when batch size reached", func(t *testing.T) {
		flusher := newMockFlusher()
		counter := NewViewCounter(Config{
			FlushInterval: 10 * time.Second, // Long interval
			BatchSize:     10,               // Small batch size
		}, flusher)
		defer counter.Stop()

		for i := 0; i < 15; i++ {
			counter.RecordView(101)
		}

		// Give time for batch flush
		time.Sleep(50 * time.Millisecond)

		counts := flusher.getCounts()
		assert.True(t, counts[101] >= 10, "should have flushed at least batch size")
	})
}

func TestViewCounter_Stop(t *testing.T) {
	t.Run("flushes remaining views on stop", func(t *testing.T) {
		flusher := newMockFlusher()
		counter := NewViewCounter(Config{
			FlushInterval: 10 * time.Second, // Long interval
			BatchSize:     1000,             // Large batch
		}, flusher)

		counter.RecordView(101)
		counter.RecordView(101)
		counter.RecordView(202)

		// Stop should flush remaining
		counter.Stop()

		counts := flusher.getCounts()
		assert.Equal(t, int64(2), counts[101])
		assert.Equal(t, int64(1), counts[202])
	})

	t.Run("is safe to call stop multiple times", func(t *testing.T) {
		flusher := newMockFlusher()
		counter := NewViewCounter(Config{
			FlushInterval: time.Second,
			BatchSize:     100,
		}, flusher)

		counter.RecordView(101)

		// Should not panic
		counter.Stop()
		counter.Stop()
		counter.Stop()
	})

	t.Run("RecordView after stop is ignored", func(t *testing.T) {
		flusher := newMockFlusher()
		counter := NewViewCounter(Config{
			FlushInterval: 10 * time.Second,
			BatchSize:     1000,
		}, flusher)

		counter.RecordView(1)
		counter.Stop()

		// These should be ignored
		counter.RecordView(2)
		counter.RecordView(2)

		counts := flusher.getCounts()
		assert.Equal(t, int64(1), counts[1])
		assert.Equal(t, int64(0), counts[2])
	})
}

func TestViewCounter_Concurrency(t *testing.T) {
	t.Run("handles concurrent views safely", func(t *testing.T) {
		flusher := newMockFlusher()
		counter := NewViewCounter(Config{
			FlushInterval: 50 * time.Millisecond,
			BatchSize:     1000,
		}, flusher)
		defer counter.Stop()

		var wg sync.WaitGroup
		viewsPerGoroutine := 100
		numGoroutines := 10

		for i := 0; i < numGoroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < viewsPerGoroutine; j++ {
					counter.RecordView(777)
				}
			}()
		}

		wg.Wait()

		// Wait for flush
		time.Sleep(100 * time.Millisecond)

		counts := flusher.getCounts()
		expectedTotal := int64(numGoroutines * viewsPerGoroutine)
		assert.Equal(t, expectedTotal, counts[777])
	})
}

func TestViewCounter_NonBlocking(t *testing.T) {
	t.Run("RecordView does not block", func(t *testing.T) {
		flusher := newMockFlusher()
		counter := NewViewCounter(Config{
			FlushInterval: time.Second,
			BatchSize:     100,
		}, flusher)
		defer counter.Stop()

		// Should complete very quickly
		start := time.Now()
		for i := 0; i < 1000; i++ {
			counter.RecordView(5)
		}
		elapsed := time.Since(start)

		// Should be extremely fast (< 10ms for 1000 calls)
		assert.True(t, elapsed < 10*time.Millisecond, "RecordView should be non-blocking, took %v", elapsed)
	})
}

func TestViewCounter_GetPendingStats(t *testing.T) {
	t.Run("returns in-memory stats", func(t *testing.T) {
		flusher := newMockFlusher()
		counter := NewViewCounter(Config{
			FlushInterval: 10 * time.Second,
			BatchSize:     1000,
		}, flusher)
		defer counter.Stop()

		counter.RecordView(101)
		counter.RecordView(101)
		counter.RecordView(202)

		// Allow time for async processing
		time.Sleep(10 * time.Millisecond)

		stats := counter.GetPendingStats()
		assert.Equal(t, int64(2), stats[101])
		assert.Equal(t, int64(1), stats[202])
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 10*time.Second, cfg.FlushInterval)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 10000, cfg.ChannelBuffer)
}

func BenchmarkViewCounter_RecordView(b *testing.B) {
	flusher := newMockFlusher()
	counter := NewViewCounter(Config{
		FlushInterval: time.Minute,
		BatchSize:     10000,
		ChannelBuffer: 10000,
	}, flusher)
	defer counter.Stop()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		counter.RecordView(1)
	}
}

func BenchmarkViewCounter_RecordView_Parallel(b *testing.B) {
	flusher := newMockFlusher()
	counter := NewViewCounter(Config{
		FlushInterval: time.Minute,
		BatchSize:     10000,
		ChannelBuffer: 10000,
	}, flusher)
	defer counter.Stop()

	var n int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			counter.RecordView(atomic.AddInt64(&n, 1) % 26)
		}
	})
}
