package cache

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := New(Config{DefaultTTL: time.Minute})
	defer c.Close()

	c.Set(ctx, "a", 1)
	v, ok := c.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Delete(ctx, "a")
	_, ok = c.Get(ctx, "a")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := New(Config{DefaultTTL: time.Minute})
	defer c.Close()

	c.SetWithTTL(ctx, "short", "x", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	_, ok := c.Get(ctx, "short")
	assert.False(t, ok)

	c.removeExpired()
	assert.Equal(t, 0, c.Size())
}

func TestCache_MaxItemsEvictsSoonestExpiry(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	var evicted []string
	c := New(Config{
		DefaultTTL: time.Hour,
		MaxItems:   2,
		OnEviction: func(key string, _ any) {
			mu.Lock()
			evicted = append(evicted, key)
			mu.Unlock()
		},
	})
	defer c.Close()

	c.SetWithTTL(ctx, "soon", 1, time.Minute)
	c.SetWithTTL(ctx, "later", 2, time.Hour)
	c.SetWithTTL(ctx, "new", 3, time.Hour)

	assert.Equal(t, 2, c.Size())
	_, ok := c.Get(ctx, "soon")
	assert.False(t, ok)
	assert.Equal(t, []string{"soon"}, evicted)

	// Overwriting an existing key never evicts.
	c.Set(ctx, "new", 4)
	assert.Equal(t, 2, c.Size())
}

type area struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// memoryL2 is an in-process stand-in for Redis.
type memoryL2 struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryL2() *memoryL2 { return &memoryL2{data: map[string][]byte{}} }

func (m *memoryL2) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *memoryL2) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func (m *memoryL2) Delete(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

func (m *memoryL2) Clear(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = map[string][]byte{}
}

func (m *memoryL2) Close() error { return nil }

func TestTieredCache_L1(t *testing.T) {
	ctx := context.Background()
	tc := NewTieredCache(nil)
	defer tc.Close()

	require.NoError(t, tc.Set(ctx, "k", area{ID: 7, Name: "Paris"}, time.Minute))

	var got area
	require.True(t, tc.Get(ctx, "k", &got))
	assert.Equal(t, area{ID: 7, Name: "Paris"}, got)

	var missing area
	assert.False(t, tc.Get(ctx, "nope", &missing))

	stats := tc.Stats()
	assert.EqualValues(t, 1, stats["hits"])
	assert.EqualValues(t, 1, stats["misses"])
	assert.Equal(t, false, stats["l2_enabled"])
}

func TestTieredCache_PromotesFromL2(t *testing.T) {
	ctx := context.Background()
	l2 := newMemoryL2()

	writer := NewTieredCache(&TieredCacheConfig{L1MaxItems: 10, L1TTL: time.Minute, L2: l2})
	defer writer.Close()
	require.NoError(t, writer.Set(ctx, "k", []area{{ID: 1, Name: "a"}}, time.Minute))

	// A second instance shares only L2.
	reader := NewTieredCache(&TieredCacheConfig{L1MaxItems: 10, L1TTL: time.Minute, L2: l2})
	defer reader.Close()

	var got []area
	require.True(t, reader.Get(ctx, "k", &got))
	assert.Equal(t, []area{{ID: 1, Name: "a"}}, got)
	assert.Equal(t, 1, reader.l1.Size())

	reader.Delete(ctx, "k")
	_, ok := l2.Get(ctx, "k")
	assert.False(t, ok)
}

func TestGenerateCacheKey(t *testing.T) {
	a := GenerateCacheKey("area", "France", "Paris")
	b := GenerateCacheKey("area", "France", "Paris")
	c := GenerateCacheKey("area", "France", "Lyon")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "area:France:Paris:")
	assert.Len(t, KeyHash("x"), 16)
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("FINDER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FINDER_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	cfg := DefaultRedisConfig(addr)
	cfg.KeyPrefix = "finder-test:"
	rc, err := NewRedisCache(ctx, cfg)
	require.NoError(t, err)
	defer rc.Close()
	defer rc.Clear(ctx)

	rc.SetWithTTL(ctx, "k", []byte(`{"id":1}`), time.Minute)
	data, ok := rc.Get(ctx, "k")
	require.True(t, ok)
	assert.JSONEq(t, `{"id":1}`, string(data))

	rc.Delete(ctx, "k")
	_, ok = rc.Get(ctx, "k")
	assert.False(t, ok)
}

func TestNewRedisCache_RequiresAddr(t *testing.T) {
	_, err := NewRedisCache(context.Background(), &RedisCacheConfig{})
	assert.Error(t, err)
}
