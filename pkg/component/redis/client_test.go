package redis

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	autoerrors "github.com/kart-io/docstore-boot/pkg/errors"
)

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := New(context.Background(), Config{Address: mr.Addr()})
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, mr.Addr(), c.Address())
	require.NoError(t, c.Client().Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewRejectsEmptyAddress(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.True(t, stderrors.Is(err, autoerrors.ErrConfiguration))
}

func TestNewUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), Config{Address: addr})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, autoerrors.ErrConnectionFailed))
}

func TestHealth(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := New(context.Background(), Config{Address: mr.Addr()})
	require.NoError(t, err)
	defer c.Close()

	assert.NoError(t, c.Health()())

	stats := c.HealthWithStats(context.Background())
	assert.True(t, stats.Healthy)
	require.NotNil(t, stats.PoolStats)
	assert.Empty(t, stats.Error)

	mr.Close()
	assert.Error(t, c.Health()())
	stats = c.HealthWithStats(context.Background())
	assert.False(t, stats.Healthy)
	assert.NotEmpty(t, stats.Error)
}
