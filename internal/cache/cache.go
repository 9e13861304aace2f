// Package cache handles Redis caching operations.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/itemhub/itemhub/internal/config"
)

// Common errors
var (
	ErrCacheMiss = errors.New("cache miss")
)

// Cache defines the interface for caching operations.
type Cache interface {
	// Get retrieves a value from the cache.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with a TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists in the cache.
	Exists(ctx context.Context, key string) (bool, error)

	// Ping checks if the cache is healthy.
	Ping(ctx context.Context) error

	// Close closes the cache connection.
	Close() error
}

// RedisCache implements Cache using Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache client.
func NewRedisCache(ctx context.Context, cfg *config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	// Verify connectivity
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Get retrieves a value from the cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("cache get failed: %w", err)
	}
	return val, nil
}

// Set stores a value in the cache with a TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

// Delete removes a value from the cache.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	err := c.client.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("cache delete failed: %w", err)
	}
	return nil
}

// Exists checks if a key exists in the cache.
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("cache exists check failed: %w", err)
	}
	return n > 0, nil
}

// Ping checks if the cache is healthy.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the cache connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Client returns the underlying Redis client for advanced operations.
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

// ItemCacher defines the interface for item caching operations.
// This interface enables easy mocking in tests.
type ItemCacher interface {
	Get(ctx context.Context, id int64) (*CachedItem, error)
	Set(ctx context.Context, item *CachedItem) error
	SetWithTTL(ctx context.Context, item *CachedItem, ttl time.Duration) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	Ping(ctx context.Context) error
}

// Ensure ItemCache implements ItemCacher
var _ ItemCacher = (*ItemCache)(nil)

// ItemCache provides item-specific caching operations.
type ItemCache struct {
	cache      Cache
	keyPrefix  string
	defaultTTL time.Duration
}

// NewItemCache creates a new item-specific cache.
func NewItemCache(cache Cache, keyPrefix string, defaultTTL time.Duration) *ItemCache {
	if keyPrefix == "" {
		keyPrefix = "item:"
	}
	if defaultTTL == 0 {
		defaultTTL = 5 * time.Minute
	}
	return &ItemCache{
		cache:      cache,
		keyPrefix:  keyPrefix,
		defaultTTL: defaultTTL,
	}
}

// CachedItem represents an item stored in cache.
// Contains all fields from models.Item for complete data on cache hit.
type CachedItem struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ViewCount   int64     `json:"view_count"`
}

// Get retrieves an item from cache by id.
func (c *ItemCache) Get(ctx context.Context, id int64) (*CachedItem, error) {
	data, err := c.cache.Get(ctx, c.key(id))
	if err != nil {
		return nil, err
	}

	var item CachedItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached item: %w", err)
	}

	return &item, nil
}

// Set stores an item in cache.
func (c *ItemCache) Set(ctx context.Context, item *CachedItem) error {
	return c.SetWithTTL(ctx, item, c.defaultTTL)
}

// SetWithTTL stores an item in cache with a specific TTL.
func (c *ItemCache) SetWithTTL(ctx context.Context, item *CachedItem, ttl time.Duration) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	return c.cache.Set(ctx, c.key(item.ID), data, ttl)
}

// Delete removes an item from cache.
func (c *ItemCache) Delete(ctx context.Context, id int64) error {
	return c.cache.Delete(ctx, c.key(id))
}

// Exists checks if an item exists in cache.
func (c *ItemCache) Exists(ctx context.Context, id int64) (bool, error) {
	return c.cache.Exists(ctx, c.key(id))
}

// key generates the cache key for an item id.
func (c *ItemCache) key(id int64) string {
	return c.keyPrefix + strconv.FormatInt(id, 10)
}

// Ping checks if the cache is healthy.
func (c *ItemCache) Ping(ctx context.Context) error {
	return c.cache.Ping(ctx)
}
