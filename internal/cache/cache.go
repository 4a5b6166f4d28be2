// Package cache stores serialized catalog snapshots so the product listing
// endpoint does not hit the database on every page load.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/HerbHall/rigforge/pkg/plugin"
	"github.com/redis/go-redis/v9"
)

// Cache is a byte-oriented key/value cache with a fixed TTL.
type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for the cache's TTL.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes keys; missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// Incr atomically increments the integer counter at key and returns the
	// new value. A missing key counts from zero. Counters do not expire and
	// are readable through Get as a decimal string.
	Incr(ctx context.Context, key string) (int64, error)

	// Close releases any connection held by the cache.
	Close() error
}

// New builds the cache selected by cache.driver ("memory" or "redis").
func New(ctx context.Context, cfg plugin.Config) (Cache, error) {
	ttl := cfg.GetDuration("cache.ttl")
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	switch driver := cfg.GetString("cache.driver"); driver {
	case "", "memory":
		return NewMemoryCache(ttl), nil
	case "redis":
		opt, err := redis.ParseURL(cfg.GetString("cache.redis_url"))
		if err != nil {
			return nil, fmt.Errorf("parse cache.redis_url: %w", err)
		}
		rdb := redis.NewClient(opt)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return NewRedisCache(rdb, "rigforge:", ttl), nil
	default:
		return nil, fmt.Errorf("unknown cache.driver %q", driver)
	}
}
