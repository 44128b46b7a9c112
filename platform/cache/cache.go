// Package cache provides an explicit TTL cache abstraction backed by Redis.
// It replaces ad hoc module-level caches: the policy (TTL) is stated at
// construction, and entries are invalidated explicitly by the owning module.
// This is part of the platform layer and contains no business logic.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a key is not present in the cache.
var ErrMiss = errors.New("cache: miss")

// Cache is a TTL key-value cache for JSON-serializable values.
type Cache interface {
	// Get unmarshals the cached value for key into dest.
	// Returns ErrMiss when the key is absent or expired.
	Get(ctx context.Context, key string, dest any) error
	// Set stores the value under key for the cache's TTL.
	Set(ctx context.Context, key string, value any) error
	// Delete removes the key; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// RedisCache implements Cache over a Redis client with a fixed TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis creates a Redis-backed cache from a redis URL.
// All keys are namespaced with the given prefix.
func NewRedis(redisURL, prefix string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return NewRedisWithClient(redis.NewClient(opt), prefix, ttl), nil
}

// NewRedisWithClient wraps an existing client (used by tests with miniredis).
func NewRedisWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) namespaced(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

// Get retrieves and unmarshals a cached value.
func (c *RedisCache) Get(ctx context.Context, key string, dest any) error {
	raw, err := c.client.Get(ctx, c.namespaced(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Set marshals and stores a value with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.namespaced(key), raw, c.ttl).Err()
}

// Delete removes a key.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.namespaced(key)).Err()
}

// Compile-time check that RedisCache implements Cache.
var _ Cache = (*RedisCache)(nil)
