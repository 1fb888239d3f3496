package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is a thread-safe in-memory map with optional per-entry expiry.
type MemoryCache[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]memoryEntry[V]
	now  func() time.Time
}

type memoryEntry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e memoryEntry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache[K comparable, V any]() *MemoryCache[K, V] {
	return &MemoryCache[K, V]{
		data: make(map[K]memoryEntry[V]),
		now:  time.Now,
	}
}

// Set adds or replaces an item. A zero ttl keeps it until removed.
func (c *MemoryCache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := memoryEntry[V]{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.data[key] = e
}

// Get retrieves an unexpired item.
func (c *MemoryCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}
	if e.expired(c.now()) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have replaced it.
		if cur, ok := c.data[key]; ok && cur.expired(c.now()) {
			delete(c.data, key)
		}
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	return e.value, true
}

// Del removes an item.
func (c *MemoryCache[K, V]) Del(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Len returns the number of unexpired items.
func (c *MemoryCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	n := 0
	for _, e := range c.data {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

// Keys returns the keys of all unexpired items.
func (c *MemoryCache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	keys := make([]K, 0, len(c.data))
	for k, e := range c.data {
		if !e.expired(now) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Clear removes all items.
func (c *MemoryCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[K]memoryEntry[V])
}

// MemoryStore is a Store keeping one MemoryCache per cache name.
type MemoryStore struct {
	mu     sync.Mutex
	caches map[string]*MemoryCache[string, []byte]
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{caches: make(map[string]*MemoryCache[string, []byte])}
}

func (s *MemoryStore) cache(name string) *MemoryCache[string, []byte] {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.caches[name]
	if !ok {
		c = NewMemoryCache[string, []byte]()
		s.caches[name] = c
	}
	return c
}

// Name implements Store.
func (s *MemoryStore) Name() string { return "memory" }

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, cache, key string) ([]byte, bool, error) {
	v, ok := s.cache(cache).Get(key)
	return v, ok, nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, cache, key string, value []byte, ttl time.Duration) error {
	s.cache(cache).Set(key, value, ttl)
	return nil
}

// Evict implements Store.
func (s *MemoryStore) Evict(_ context.Context, cache, key string) error {
	s.cache(cache).Del(key)
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context, cache string) error {
	s.cache(cache).Clear()
	return nil
}
