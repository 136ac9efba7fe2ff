package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores JSON-encoded values in redis with per-entry TTLs.
// It satisfies Cache[string, V] so hot-path lookups survive restarts and
// are shared across instances.
type RedisCache[V any] struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// NewRedisCache constructs a redis-backed cache with a key prefix.
func NewRedisCache[V any](client *redis.Client, prefix string) *RedisCache[V] {
	return &RedisCache[V]{
		client:  client,
		prefix:  prefix,
		timeout: 250 * time.Millisecond,
	}
}

// Get returns a cached value, treating redis errors as misses.
func (c *RedisCache[V]) Get(key string) (V, bool) {
	var zero V
	if c == nil || c.client == nil || key == "" {
		return zero, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return zero, false
	}
	var value V
	if err := json.Unmarshal(raw, &value); err != nil {
		return zero, false
	}
	return value, true
}

// Set stores a value; write failures are swallowed, the cache is best-effort.
func (c *RedisCache[V]) Set(key string, value V, ttl time.Duration) {
	if c == nil || c.client == nil || key == "" {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	_ = c.client.Set(ctx, c.prefix+key, raw, ttl).Err()
}

// Delete removes a cached entry.
func (c *RedisCache[V]) Delete(key string) {
	if c == nil || c.client == nil || key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	_ = c.client.Del(ctx, c.prefix+key).Err()
}
