package etcd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledByDefault(t *testing.T) {
	o := NewOptions()
	assert.False(t, o.Enabled())
	assert.Empty(t, o.Validate())

	var nilOpts *Options
	assert.False(t, nilOpts.Enabled())
}

func TestCompleteAddsTrailingSlash(t *testing.T) {
	t.Setenv("ETCD_PASSWORD", "from-env")
	o := NewOptions()
	o.Prefix = "/apps/docstore"
	require.NoError(t, o.Complete())

	assert.Equal(t, "/apps/docstore/", o.Prefix)
	assert.Equal(t, "from-env", o.Password)
	assert.NotContains(t, o.String(), "from-env")
}

func TestValidateWhenEnabled(t *testing.T) {
	o := &Options{Endpoints: []string{"127.0.0.1:2379"}, DialTimeout: -time.Second}
	assert.Len(t, o.Validate(), 3)
}
