// Package cache provides named caches backed by a pluggable Store: the
// document store, redis or process memory.
package cache

import (
	"context"
	"time"

	autoerrors "github.com/kart-io/docstore-boot/pkg/errors"
	"github.com/kart-io/docstore-boot/pkg/utils/json"
)

// Store keeps raw entries grouped by cache name.
type Store interface {
	// Name identifies the backend in logs and reports.
	Name() string
	// Get returns the entry and whether it was present and unexpired.
	Get(ctx context.Context, cache, key string) ([]byte, bool, error)
	// Put stores an entry. A zero ttl means the entry never expires.
	Put(ctx context.Context, cache, key string, value []byte, ttl time.Duration) error
	// Evict removes one entry.
	Evict(ctx context.Context, cache, key string) error
	// Clear removes every entry of a cache.
	Clear(ctx context.Context, cache string) error
}

// Cache is a named view over a Store. Values are encoded as JSON.
type Cache struct {
	name  string
	store Store
	ttl   time.Duration
}

// Name returns the cache name.
func (c *Cache) Name() string { return c.name }

// TTL returns the entry expiry used by Put.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get decodes the entry stored under key into out. It reports false when
// there is no such entry.
func (c *Cache) Get(ctx context.Context, key string, out any) (bool, error) {
	raw, ok, err := c.store.Get(ctx, c.name, key)
	if err != nil {
		return false, c.wrap("get", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, c.wrap("decode", key, err)
	}
	return true, nil
}

// Put stores value under key.
func (c *Cache) Put(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return c.wrap("encode", key, err)
	}
	if err := c.store.Put(ctx, c.name, key, raw, c.ttl); err != nil {
		return c.wrap("put", key, err)
	}
	return nil
}

// Evict removes the entry stored under key.
func (c *Cache) Evict(ctx context.Context, key string) error {
	if err := c.store.Evict(ctx, c.name, key); err != nil {
		return c.wrap("evict", key, err)
	}
	return nil
}

// Clear removes every entry of the cache.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx, c.name); err != nil {
		return autoerrors.ErrCacheOperation.WithMessagef("clear %s", c.name).WithCause(err)
	}
	return nil
}

func (c *Cache) wrap(op, key string, err error) error {
	return autoerrors.ErrCacheOperation.WithMessagef("%s %s::%s", op, c.name, key).WithCause(err)
}
