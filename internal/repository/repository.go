// Package repository handles data persistence.
package repository

import (
	"context"

	"github.com/itemhub/itemhub/internal/models"
)

// DefaultListLimit caps item listings when no limit is supplied.
const DefaultListLimit = 100

// MaxListLimit is the hard ceiling for a single listing request.
const MaxListLimit = 1000

// ListOptions controls pagination for item listings.
type ListOptions struct {
	Offset  int
	Limit   int
	OwnerID int64 // 0 means all owners
}

// Normalize clamps pagination values into valid ranges.
func (o ListOptions) Normalize() ListOptions {
	if o.Offset < 0 {
		o.Offset = 0
	}
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	return o
}

// ItemRepository defines the interface for item persistence operations.
type ItemRepository interface {
	// Create stores a new item and returns the created entity.
	Create(ctx context.Context, create *models.ItemCreate) (*models.Item, error)

	// GetByID retrieves an item by its ID.
	GetByID(ctx context.Context, id int64) (*models.Item, error)

	// List retrieves items ordered by creation time, newest first.
	List(ctx context.Context, opts ListOptions) ([]*models.Item, error)

	// Update replaces the mutable fields of an item.
	Update(ctx context.Context, id int64, update *models.ItemUpdate) (*models.Item, error)

	// Delete removes an item by its ID.
	Delete(ctx context.Context, id int64) error

	// IncrementViewCount increments the view counter for an item.
	IncrementViewCount(ctx context.Context, id int64) error

	// BatchIncrementViewCounts applies buffered view deltas in one pass.
	BatchIncrementViewCounts(ctx context.Context, counts map[int64]int64) error

	// Exists checks if an item ID already exists.
	Exists(ctx context.Context, id int64) (bool, error)

	// HealthCheck verifies the repository is healthy.
	HealthCheck(ctx context.Context) error
}

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create stores a new user with an already hashed password.
	Create(ctx context.Context, create *models.UserCreate, passwordHash string) (*models.User, error)

	// GetByEmail retrieves a user by email address.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID retrieves a user by its ID.
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// HealthCheck verifies the repository is healthy.
	HealthCheck(ctx context.Context) error
}
