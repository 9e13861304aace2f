package repository

import (
	"context"
	"errors"
	"time"

	"github.com/itemhub/itemhub/internal/cache"
	"github.com/itemhub/itemhub/internal/models"
)

// CacheMetrics records cache hit and miss counts.
type CacheMetrics interface {
	ObserveCacheHit()
	ObserveCacheMiss()
}

// CachedItemRepository wraps an ItemRepository with caching.
// It implements write-through caching with fallback to database on cache miss.
type CachedItemRepository struct {
	repo     ItemRepository
	cache    cache.ItemCacher
	cacheTTL time.Duration
	metrics  CacheMetrics
}

// NewCachedItemRepository creates a new cached item repository.
// metrics may be nil.
func NewCachedItemRepository(repo ItemRepository, itemCache cache.ItemCacher, cacheTTL time.Duration, metrics CacheMetrics) *CachedItemRepository {
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}
	return &CachedItemRepository{
		repo:     repo,
		cache:    itemCache,
		cacheTTL: cacheTTL,
		metrics:  metrics,
	}
}

// Create stores a new item in both database and cache (write-through).
func (c *CachedItemRepository) Create(ctx context.Context, create *models.ItemCreate) (*models.Item, error) {
	item, err := c.repo.Create(ctx, create)
	if err != nil {
		return nil, err
	}

	// Cache errors are not critical
	_ = c.cacheItem(ctx, item)

	return item, nil
}

// GetByID retrieves an item, checking cache first then falling back to database.
func (c *CachedItemRepository) GetByID(ctx context.Context, id int64) (*models.Item, error) {
	cached, err := c.cache.Get(ctx, id)
	if err == nil {
		c.hit()
		return cachedToItem(cached), nil
	}
	if errors.Is(err, cache.ErrCacheMiss) {
		c.miss()
	}

	item, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	_ = c.cacheItem(ctx, item)

	return item, nil
}

// List goes straight to the database. Listings are not cached because
// any write would invalidate every page.
func (c *CachedItemRepository) List(ctx context.Context, opts ListOptions) ([]*models.Item, error) {
	return c.repo.List(ctx, opts)
}

// Update replaces the mutable fields of an item and refreshes the cache.
func (c *CachedItemRepository) Update(ctx context.Context, id int64, update *models.ItemUpdate) (*models.Item, error) {
	item, err := c.repo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	_ = c.cacheItem(ctx, item)

	return item, nil
}

// Delete removes an item from both cache and database.
func (c *CachedItemRepository) Delete(ctx context.Context, id int64) error {
	_ = c.cache.Delete(ctx, id)

	return c.repo.Delete(ctx, id)
}

// IncrementViewCount increments the view count in the database and drops
// the cache entry so the next read sees a fresh count.
func (c *CachedItemRepository) IncrementViewCount(ctx context.Context, id int64) error {
	if err := c.repo.IncrementViewCount(ctx, id); err != nil {
		return err
	}
	_ = c.cache.Delete(ctx, id)
	return nil
}

// BatchIncrementViewCounts applies buffered view deltas and invalidates
// the affected cache entries.
func (c *CachedItemRepository) BatchIncrementViewCounts(ctx context.Context, counts map[int64]int64) error {
	if err := c.repo.BatchIncrementViewCounts(ctx, counts); err != nil {
		return err
	}
	for id := range counts {
		_ = c.cache.Delete(ctx, id)
	}
	return nil
}

// Exists checks if an item exists, checking cache first.
func (c *CachedItemRepository) Exists(ctx context.Context, id int64) (bool, error) {
	exists, err := c.cache.Exists(ctx, id)
	if err == nil && exists {
		return true, nil
	}

	return c.repo.Exists(ctx, id)
}

// HealthCheck checks both cache and database health.
func (c *CachedItemRepository) HealthCheck(ctx context.Context) error {
	if err := c.cache.Ping(ctx); err != nil {
		return err
	}

	return c.repo.HealthCheck(ctx)
}

func (c *CachedItemRepository) cacheItem(ctx context.Context, item *models.Item) error {
	cached := &cache.CachedItem{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		OwnerID:     item.OwnerID,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
		ViewCount:   item.ViewCount,
	}
	return c.cache.SetWithTTL(ctx, cached, c.cacheTTL)
}

func cachedToItem(cached *cache.CachedItem) *models.Item {
	return &models.Item{
		ID:          cached.ID,
		Title:       cached.Title,
		Description: cached.Description,
		OwnerID:     cached.OwnerID,
		CreatedAt:   cached.CreatedAt,
		UpdatedAt:   cached.UpdatedAt,
		ViewCount:   cached.ViewCount,
	}
}

func (c *CachedItemRepository) hit() {
	if c.metrics != nil {
		c.metrics.ObserveCacheHit()
	}
}

func (c *CachedItemRepository) miss() {
	if c.metrics != nil {
		c.metrics.ObserveCacheMiss()
	}
}
