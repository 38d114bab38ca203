package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ignite/commerce-pulse/internal/pkg/logger"
	"github.com/ignite/commerce-pulse/internal/platform"
	"github.com/redis/go-redis/v9"
)

// Cache is a short-TTL Redis cache for the expensive computed responses
// (unified customers, attribution), keyed by date range. It is a
// response cache, not a customer store: entries expire and everything
// is recomputed from the platforms on a miss, so no identity persists
// across runs.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache wraps a Redis client. A zero TTL defaults to five minutes.
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// Key builds the cache key for a response kind and date range.
func Key(kind string, r platform.DateRange) string {
	return fmt.Sprintf("pulse:%s:%s:%s",
		kind, r.From.UTC().Format("2006-01-02"), r.To.UTC().Format("2006-01-02"))
}

// Get loads a cached response into dst. It returns false on a miss or
// any Redis error; cache failures degrade to recomputation, never to a
// request failure.
func (c *Cache) Get(ctx context.Context, key string, dst interface{}) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		logger.Warn("cache read failed", "key", key, "err", err)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		logger.Warn("cache entry corrupt, ignoring", "key", key, "err", err)
		return false
	}
	return true
}

// Set stores a response under the cache TTL. Failures are logged and
// swallowed.
func (c *Cache) Set(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Warn("cache marshal failed", "key", key, "err", err)
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logger.Warn("cache write failed", "key", key, "err", err)
	}
}
