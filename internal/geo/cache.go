package geo

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheEntry records one geocoding outcome. Misses are cached too so repeat
// searches stay off the rate-limited provider.
type CacheEntry struct {
	Location *Location `json:"location,omitempty"`
	Found    bool      `json:"found"`
}

// Cache stores geocoding outcomes under normalized query keys.
type Cache interface {
	Get(ctx context.Context, key string) (CacheEntry, bool)
	Set(ctx context.Context, key string, entry CacheEntry)
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
}

// NewMemoryCache returns an in-process cache. It is the default backend and
// lives only as long as the process.
func NewMemoryCache() Cache {
	return &memoryCache{entries: make(map[string]CacheEntry)}
}

func (c *memoryCache) Get(_ context.Context, key string) (CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry, ok
}

func (c *memoryCache) Set(_ context.Context, key string, entry CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
}

const redisKeyPrefix = "jobradar:geocode:"

type redisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache returns a Redis-backed cache shared across processes. Cache
// failures are treated as misses; the cache must never fail a search.
func NewRedisCache(rdb *redis.Client, ttl time.Duration) Cache {
	return &redisCache{rdb: rdb, ttl: ttl}
}

func (c *redisCache) Get(ctx context.Context, key string) (CacheEntry, bool) {
	payload, err := c.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		return CacheEntry{}, false
	}

	var entry CacheEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return CacheEntry{}, false
	}
	return entry, true
}

func (c *redisCache) Set(ctx context.Context, key string, entry CacheEntry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, redisKeyPrefix+key, payload, c.ttl)
}
