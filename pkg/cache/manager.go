package cache

import (
	"sync"
	"time"

	"github.com/kart-io/logger"
)

// Config configures a Manager.
type Config struct {
	// EntryExpiry applies to every cache. Zero keeps entries until evicted.
	EntryExpiry time.Duration
	// InitialNames are created eagerly in this order. Duplicates are dropped.
	InitialNames []string
}

// ManagerCustomizer adjusts a Manager after it is built and before it is
// handed out.
type ManagerCustomizer interface {
	CustomizeCacheManager(m *Manager)
}

// ManagerCustomizerFunc adapts a function to ManagerCustomizer.
type ManagerCustomizerFunc func(m *Manager)

// CustomizeCacheManager implements ManagerCustomizer.
func (f ManagerCustomizerFunc) CustomizeCacheManager(m *Manager) { f(m) }

// Manager hands out named caches over a single Store. Caches are created on
// first request.
type Manager struct {
	store Store

	mu     sync.RWMutex
	expiry time.Duration
	caches map[string]*Cache
	names  []string
}

// NewManager creates a Manager and pre-creates cfg.InitialNames.
func NewManager(store Store, cfg Config) *Manager {
	m := &Manager{
		store:  store,
		expiry: cfg.EntryExpiry,
		caches: make(map[string]*Cache),
	}
	for _, name := range cfg.InitialNames {
		m.Cache(name)
	}
	return m
}

// Customize applies customizers in order. Nil entries are skipped.
func (m *Manager) Customize(customizers ...ManagerCustomizer) *Manager {
	for _, c := range customizers {
		if c != nil {
			c.CustomizeCacheManager(m)
		}
	}
	return m
}

// Store returns the backing store.
func (m *Manager) Store() Store { return m.store }

// EntryExpiry returns the expiry given to caches created from now on.
func (m *Manager) EntryExpiry() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.expiry
}

// SetEntryExpiry changes the expiry of caches created after the call.
func (m *Manager) SetEntryExpiry(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expiry = d
}

// Cache returns the cache called name, creating it if needed.
func (m *Manager) Cache(name string) *Cache {
	m.mu.RLock()
	c, ok := m.caches[name]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.caches[name]; ok {
		return c
	}
	c = &Cache{name: name, store: m.store, ttl: m.expiry}
	m.caches[name] = c
	m.names = append(m.names, name)
	logger.Debugw("Cache created", "cache", name, "store", m.store.Name(), "ttl", m.expiry)
	return c
}

// Lookup returns the cache called name without creating it.
func (m *Manager) Lookup(name string) (*Cache, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.caches[name]
	return c, ok
}

// Names returns the cache names in creation order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.names...)
}
