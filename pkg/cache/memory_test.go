package cache

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryCache_Basic(t *testing.T) {
	c := NewMemoryCache[string, int]()

	c.Set("a", 1, 0)
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, got)
	assert.Equal(t, 1, c.Len())

	c.Set("a", 2, 0)
	got, _ = c.Get("a")
	assert.Equal(t, 2, got)

	c.Del("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_Expiry(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache[string, string]()
	c.now = clock.Now

	c.Set("short", "x", time.Second)
	c.Set("forever", "y", 0)

	clock.Advance(999 * time.Millisecond)
	_, ok := c.Get("short")
	assert.True(t, ok)

	clock.Advance(time.Millisecond)
	_, ok = c.Get("short")
	assert.False(t, ok, "entry expires at exactly its ttl")
	_, ok = c.Get("forever")
	assert.True(t, ok)

	assert.Equal(t, []string{"forever"}, c.Keys())
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_Clear(t *testing.T) {
	c := NewMemoryCache[int, int]()
	for i := 0; i < 5; i++ {
		c.Set(i, i*i, 0)
	}
	keys := c.Keys()
	sort.Ints(keys)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, keys)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Keys())
}

func TestMemoryCache_Concurrency(t *testing.T) {
	c := NewMemoryCache[int, int]()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				k := base*100 + j
				c.Set(k, k, time.Minute)
				c.Get(k)
				if j%3 == 0 {
					c.Del(k)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10*(100-34), c.Len())
}

func TestMemoryStore_IsolatesCaches(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "users", "1", []byte("alice"), 0))
	require.NoError(t, s.Put(ctx, "orders", "1", []byte("o-1"), 0))

	v, ok, err := s.Get(ctx, "users", "1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("alice"), v)

	require.NoError(t, s.Clear(ctx, "users"))
	_, ok, _ = s.Get(ctx, "users", "1")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "orders", "1")
	assert.True(t, ok)

	require.NoError(t, s.Evict(ctx, "orders", "1"))
	_, ok, _ = s.Get(ctx, "orders", "1")
	assert.False(t, ok)
	assert.Equal(t, "memory", s.Name())
}
