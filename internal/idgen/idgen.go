// Package idgen provides unique ID generation for entities stored outside
// the database (the in-memory repositories allocate their own ids).
package idgen

import "errors"

// Generation errors
var (
	ErrInvalidNodeID       = errors.New("node ID out of range")
	ErrClockMovedBackwards = errors.New("clock moved backwards")
)

// Generator produces unique int64 identifiers.
type Generator interface {
	NextID() (int64, error)
}
