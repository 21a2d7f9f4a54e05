package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// TieredCache implements a two-tier caching strategy:
// - L1: In-memory cache (fast, small, always on)
// - L2: Redis cache (shared between instances, OPTIONAL)
//
// Values are stored JSON-encoded in both tiers so that an L2 hit decodes
// into the same typed value an L1 hit does.
type TieredCache struct {
	l1 *Cache
	l2 RedisCacheInterface

	hits   atomic.Int64
	misses atomic.Int64
}

// TieredCacheConfig holds the configuration for the tiered cache.
type TieredCacheConfig struct {
	L1MaxItems int           // Max items in L1 memory cache
	L1TTL      time.Duration // Default TTL for entries
	// L2 is nil when Redis is not configured.
	L2 RedisCacheInterface
}

// DefaultTieredConfig returns the default tiered cache configuration.
func DefaultTieredConfig() *TieredCacheConfig {
	return &TieredCacheConfig{
		L1MaxItems: 1000,
		L1TTL:      10 * time.Minute,
	}
}

// NewTieredCache creates a new tiered cache.
func NewTieredCache(config *TieredCacheConfig) *TieredCache {
	if config == nil {
		config = DefaultTieredConfig()
	}
	l2 := config.L2
	if l2 == nil {
		l2 = NilRedisCache{}
	}
	return &TieredCache{
		l1: New(Config{
			DefaultTTL:      config.L1TTL,
			CleanupInterval: time.Minute,
			MaxItems:        config.L1MaxItems,
		}),
		l2: l2,
	}
}

// Get decodes the cached value for key into dst. L2 hits are promoted to L1.
func (t *TieredCache) Get(ctx context.Context, key string, dst any) bool {
	if raw, ok := t.l1.Get(ctx, key); ok {
		if err := json.Unmarshal(raw.([]byte), dst); err == nil {
			t.hits.Add(1)
			return true
		}
	}
	if data, ok := t.l2.Get(ctx, key); ok {
		if err := json.Unmarshal(data, dst); err != nil {
			slog.Warn("failed to decode cached value", "key", key, "error", err)
		} else {
			t.l1.Set(ctx, key, data)
			t.hits.Add(1)
			return true
		}
	}
	t.misses.Add(1)
	return false
}

// Set stores a value in both tiers with the given TTL.
func (t *TieredCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "failed to encode cache value %q", key)
	}
	t.l1.SetWithTTL(ctx, key, data, ttl)
	t.l2.SetWithTTL(ctx, key, data, ttl)
	return nil
}

// Delete removes a value from both tiers.
func (t *TieredCache) Delete(ctx context.Context, key string) {
	t.l1.Delete(ctx, key)
	t.l2.Delete(ctx, key)
}

// Clear clears both tiers.
func (t *TieredCache) Clear(ctx context.Context) {
	t.l1.Clear(ctx)
	t.l2.Clear(ctx)
}

// Stats returns cache statistics.
func (t *TieredCache) Stats() map[string]any {
	_, nilL2 := t.l2.(NilRedisCache)
	return map[string]any{
		"l1_size":    t.l1.Size(),
		"l2_enabled": !nilL2,
		"hits":       t.hits.Load(),
		"misses":     t.misses.Load(),
	}
}

// Close stops the L1 cleanup goroutine and closes L2.
func (t *TieredCache) Close() error {
	t.l1.Close()
	return t.l2.Close()
}
