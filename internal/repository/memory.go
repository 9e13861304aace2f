package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/itemhub/itemhub/internal/idgen"
	"github.com/itemhub/itemhub/internal/models"
)

// MemoryItemRepository implements ItemRepository with an in-memory map.
// It backs local development and tests that run without PostgreSQL.
type MemoryItemRepository struct {
	mu    sync.RWMutex
	items map[int64]*models.Item
	gen   idgen.Generator
}

// NewMemoryItemRepository creates an in-memory item repository.
func NewMemoryItemRepository(gen idgen.Generator) *MemoryItemRepository {
	return &MemoryItemRepository{
		items: make(map[int64]*models.Item),
		gen:   gen,
	}
}

// Create stores a new item.
func (r *MemoryItemRepository) Create(_ context.Context, create *models.ItemCreate) (*models.Item, error) {
	if err := create.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.OwnerID == create.OwnerID && strings.EqualFold(existing.Title, create.Title) {
			return nil, models.ErrDuplicateTitle
		}
	}

	id, err := r.gen.NextID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	item := &models.Item{
		ID:          id,
		Title:       create.Title,
		Description: create.Description,
		OwnerID:     create.OwnerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.items[id] = item

	return copyItem(item), nil
}

// GetByID retrieves an item by its ID.
func (r *MemoryItemRepository) GetByID(_ context.Context, id int64) (*models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, models.ErrItemNotFound
	}
	return copyItem(item), nil
}

// List retrieves items ordered by creation time, newest first.
func (r *MemoryItemRepository) List(_ context.Context, opts ListOptions) ([]*models.Item, error) {
	opts = opts.Normalize()

	r.mu.RLock()
	all := make([]*models.Item, 0, len(r.items))
	for _, item := range r.items {
		if opts.OwnerID != 0 && item.OwnerID != opts.OwnerID {
			continue
		}
		all = append(all, copyItem(item))
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	if opts.Offset >= len(all) {
		return []*models.Item{}, nil
	}
	all = all[opts.Offset:]
	if len(all) > opts.Limit {
		all = all[:opts.Limit]
	}

	return all, nil
}

// Update replaces the mutable fields of an item.
func (r *MemoryItemRepository) Update(_ context.Context, id int64, update *models.ItemUpdate) (*models.Item, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return nil, models.ErrItemNotFound
	}

	for otherID, existing := range r.items {
		if otherID != id && existing.OwnerID == item.OwnerID && strings.EqualFold(existing.Title, update.Title) {
			return nil, models.ErrDuplicateTitle
		}
	}

	item.Title = update.Title
	item.Description = update.Description
	item.UpdatedAt = time.Now().UTC()

	return copyItem(item), nil
}

// Delete removes an item by its ID.
func (r *MemoryItemRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return models.ErrItemNotFound
	}
	delete(r.items, id)
	return nil
}

// IncrementViewCount increments the view counter for an item.
func (r *MemoryItemRepository) IncrementViewCount(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return models.ErrItemNotFound
	}
	item.ViewCount++
	return nil
}

// BatchIncrementViewCounts applies buffered view deltas.
// Deltas for items deleted in the meantime are silently dropped.
func (r *MemoryItemRepository) BatchIncrementViewCounts(_ context.Context, counts map[int64]int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, delta := range counts {
		if delta <= 0 {
			continue
		}
		if item, ok := r.items[id]; ok {
			item.ViewCount += delta
		}
	}
	return nil
}

// Exists checks if an item ID already exists.
func (r *MemoryItemRepository) Exists(_ context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.items[id]
	return ok, nil
}

// HealthCheck always succeeds for the in-memory repository.
func (r *MemoryItemRepository) HealthCheck(_ context.Context) error {
	return nil
}

// Len returns the number of stored items.
func (r *MemoryItemRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func copyItem(item *models.Item) *models.Item {
	c := *item
	return &c
}

// MemoryUserRepository implements UserRepository with an in-memory map.
// IDs are assigned sequentially starting at 1 so the first registered
// user matches the default anonymous owner.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[int64]*models.User
	byEmail map[string]*models.User
	nextID  int64
}

// NewMemoryUserRepository creates an in-memory user repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[int64]*models.User),
		byEmail: make(map[string]*models.User),
		nextID:  1,
	}
}

// Create stores a new user with an already hashed password.
func (r *MemoryUserRepository) Create(_ context.Context, create *models.UserCreate, passwordHash string) (*models.User, error) {
	if err := create.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(create.Email)
	if _, exists := r.byEmail[email]; exists {
		return nil, models.ErrDuplicateEmail
	}

	user := &models.User{
		ID:           r.nextID,
		Email:        email,
		Username:     create.Username,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	r.nextID++

	r.byID[user.ID] = user
	r.byEmail[email] = user

	return copyUser(user), nil
}

// GetByEmail retrieves a user by email address.
func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return copyUser(user), nil
}

// GetByID retrieves a user by its ID.
func (r *MemoryUserRepository) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return copyUser(user), nil
}

// HealthCheck always succeeds for the in-memory repository.
func (r *MemoryUserRepository) HealthCheck(_ context.Context) error {
	return nil
}

func copyUser(user *models.User) *models.User {
	c := *user
	return &c
}
