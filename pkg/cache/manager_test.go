package cache

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	autoerrors "github.com/kart-io/docstore-boot/pkg/errors"
)

type profile struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

type failingStore struct{ *MemoryStore }

func (failingStore) Get(context.Context, string, string) ([]byte, bool, error) {
	return nil, false, stderrors.New("backend down")
}

func TestManagerInitialNames(t *testing.T) {
	m := NewManager(NewMemoryStore(), Config{InitialNames: []string{"users", "orders", "users", "sessions"}})

	assert.Equal(t, []string{"users", "orders", "sessions"}, m.Names())

	_, ok := m.Lookup("missing")
	assert.False(t, ok)

	c := m.Cache("missing")
	assert.Equal(t, "missing", c.Name())
	assert.Same(t, c, m.Cache("missing"))
	assert.Equal(t, []string{"users", "orders", "sessions", "missing"}, m.Names())
}

func TestManagerNamesIsACopy(t *testing.T) {
	m := NewManager(NewMemoryStore(), Config{InitialNames: []string{"a"}})
	names := m.Names()
	names[0] = "changed"
	assert.Equal(t, []string{"a"}, m.Names())
}

func TestManagerExpiry(t *testing.T) {
	m := NewManager(NewMemoryStore(), Config{EntryExpiry: time.Minute, InitialNames: []string{"a"}})

	assert.Equal(t, time.Minute, m.Cache("a").TTL())

	m.SetEntryExpiry(time.Hour)
	assert.Equal(t, time.Minute, m.Cache("a").TTL(), "existing caches keep their expiry")
	assert.Equal(t, time.Hour, m.Cache("b").TTL())
}

func TestManagerCustomizersRunInOrder(t *testing.T) {
	var calls []string
	m := NewManager(NewMemoryStore(), Config{}).Customize(
		ManagerCustomizerFunc(func(m *Manager) {
			calls = append(calls, "first")
			m.SetEntryExpiry(time.Second)
		}),
		nil,
		ManagerCustomizerFunc(func(m *Manager) {
			calls = append(calls, "second")
			m.Cache("warm")
		}),
	)

	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, time.Second, m.EntryExpiry())
	assert.Equal(t, []string{"warm"}, m.Names())
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewManager(NewMemoryStore(), Config{}).Cache("profiles")

	require.NoError(t, c.Put(ctx, "ada", profile{Name: "Ada", Roles: []string{"admin"}}))

	var got profile
	ok, err := c.Get(ctx, "ada", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, profile{Name: "Ada", Roles: []string{"admin"}}, got)

	require.NoError(t, c.Evict(ctx, "ada"))
	ok, err = c.Get(ctx, "ada", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "x", 1))
	require.NoError(t, c.Clear(ctx))
	var n int
	ok, _ = c.Get(ctx, "x", &n)
	assert.False(t, ok)
}

func TestCacheErrorsAreCacheOperationErrors(t *testing.T) {
	ctx := context.Background()
	c := NewManager(failingStore{MemoryStore: NewMemoryStore()}, Config{}).Cache("users")

	var out string
	_, err := c.Get(ctx, "1", &out)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, autoerrors.ErrCacheOperation))
	assert.Contains(t, err.Error(), "users::1")
}

func TestCacheDecodeFailure(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := NewManager(store, Config{}).Cache("counters")

	require.NoError(t, store.Put(ctx, "counters", "hits", []byte("not json"), 0))

	var n int
	ok, err := c.Get(ctx, "hits", &n)
	assert.False(t, ok)
	assert.True(t, stderrors.Is(err, autoerrors.ErrCacheOperation))
	assert.Contains(t, err.Error(), "decode counters::hits")
}
