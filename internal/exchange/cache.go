package exchange

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores rates with an expiry. Implementations must treat expired
// entries as misses.
type Cache interface {
	Get(ctx context.Context, key string) (float64, bool)
	Set(ctx context.Context, key string, value float64, ttl time.Duration)
}

type memoryEntry struct {
	value     float64
	expiresAt time.Time
}

// MemoryCache is an in-process Cache with an injectable clock.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache(now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return 0, false
	}
	return e.value, true
}

func (c *MemoryCache) Set(_ context.Context, key string, value float64, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{value: value, expiresAt: c.now().Add(ttl)}
}

// RedisCache shares rates between instances; expiry is delegated to Redis TTLs.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) (float64, bool) {
	v, err := c.client.Get(ctx, c.prefix+key).Float64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("rate cache read failed", "key", key, "error", err)
		}
		return 0, false
	}
	return v, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value float64, ttl time.Duration) {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		slog.Warn("rate cache write failed", "key", key, "error", err)
	}
}
