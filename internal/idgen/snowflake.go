package idgen

import (
	"sync"
	"time"
)

// Snowflake epoch: January 1, 2024 00:00:00 UTC.
// A custom epoch leaves ~69 years of headroom in 41 timestamp bits.
const snowflakeEpoch int64 = 1704067200000 // milliseconds

// Bit allocation:
// - 41 bits timestamp (milliseconds since epoch)
// - 10 bits node ID (0-1023)
// - 12 bits sequence (0-4095 per millisecond)
const (
	nodeBits     = 10
	sequenceBits = 12

	maxNodeID   = (1 << nodeBits) - 1
	maxSequence = (1 << sequenceBits) - 1

	nodeShift      = sequenceBits
	timestampShift = nodeBits + sequenceBits
)

// SnowflakeGenerator generates unique, time-ordered int64 IDs.
type SnowflakeGenerator struct {
	mu       sync.Mutex
	nodeID   int64
	sequence int64
	lastTime int64
}

// NewSnowflakeGenerator creates a new SnowflakeGenerator with the given node
// ID. nodeID must be between 0 and 1023 inclusive.
func NewSnowflakeGenerator(nodeID int64) (*SnowflakeGenerator, error) {
	if nodeID < 0 || nodeID > maxNodeID {
		return nil, ErrInvalidNodeID
	}
	return &SnowflakeGenerator{nodeID: nodeID}, nil
}

// NextID creates a new unique, monotonically increasing ID.
// Thread-safe; within one node IDs never repeat.
func (g *SnowflakeGenerator) NextID() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli()

	switch {
	case now == g.lastTime:
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			// Sequence overflow, wait for the next millisecond
			for now <= g.lastTime {
				now = time.Now().UnixMilli()
			}
		}
	case now < g.lastTime:
		return 0, ErrClockMovedBackwards
	default:
		g.sequence = 0
	}

	g.lastTime = now

	id := ((now - snowflakeEpoch) << timestampShift) |
		(g.nodeID << nodeShift) |
		g.sequence

	return id, nil
}

// NodeID returns the configured node ID.
func (g *SnowflakeGenerator) NodeID() int64 {
	return g.nodeID
}
