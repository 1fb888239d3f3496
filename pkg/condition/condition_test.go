package condition_test

import (
	stderrors "errors"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docstore-boot/pkg/condition"
	autoerrors "github.com/kart-io/docstore-boot/pkg/errors"
	"github.com/kart-io/docstore-boot/pkg/registry"
)

func newState(t *testing.T, setup func(r *registry.Registry, v *viper.Viper)) registry.State {
	t.Helper()
	v := viper.New()
	r := registry.New(v)
	if setup != nil {
		setup(r, v)
	}
	return r.Snapshot()
}

func evaluate(t *testing.T, c condition.Condition, s registry.State) bool {
	t.Helper()
	ok, err := condition.Evaluate(c, s)
	require.NoError(t, err)
	return ok
}

func TestEmptyCompounds(t *testing.T) {
	s := newState(t, nil)

	assert.True(t, evaluate(t, condition.All(), s), "All() is vacuously true")
	assert.False(t, evaluate(t, condition.Any(), s), "Any() is false")
	assert.True(t, evaluate(t, condition.Always(), s))
}

func TestRequiresType(t *testing.T) {
	s := newState(t, func(r *registry.Registry, _ *viper.Viper) {
		require.NoError(t, r.AddType("docstore.Cluster", ""))
	})

	assert.True(t, evaluate(t, condition.RequiresType("docstore.Cluster"), s))
	assert.False(t, evaluate(t, condition.RequiresType("cache.Manager"), s))
}

func TestRequiresTypeVersion(t *testing.T) {
	s := newState(t, func(r *registry.Registry, _ *viper.Viper) {
		require.NoError(t, r.AddType("docstore.Cluster", "1.17.7"))
		require.NoError(t, r.AddType("cache.Manager", ""))
	})

	assert.True(t, evaluate(t, condition.RequiresTypeVersion("docstore.Cluster", ">= 1.17"), s))
	assert.False(t, evaluate(t, condition.RequiresTypeVersion("docstore.Cluster", "^2"), s))
	assert.False(t, evaluate(t, condition.RequiresTypeVersion("cache.Manager", ">= 0"), s))
	assert.False(t, evaluate(t, condition.RequiresTypeVersion("missing.Type", ">= 0"), s))
}

func TestRequiresSingleCandidate(t *testing.T) {
	tests := []struct {
		name       string
		candidates int
		want       bool
		message    string
	}{
		{"zero", 0, false, "did not find any"},
		{"one", 1, true, "found a single component"},
		{"two", 2, false, "but found 2"},
		{"three", 3, false, "but found 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(t, func(r *registry.Registry, _ *viper.Viper) {
				names := []string{"a", "b", "c"}
				for i := 0; i < tt.candidates; i++ {
					r.MustRegister(registry.Component{Name: names[i], Type: "docstore.Environment", Instance: i})
				}
				r.MustRegister(registry.Component{Name: "unrelated", Type: "cache.Manager", Instance: 0})
			})

			c := condition.RequiresSingleCandidate("docstore.Environment")
			assert.Equal(t, tt.want, evaluate(t, c, s))

			o, err := condition.Explain(c, s)
			require.NoError(t, err)
			assert.Contains(t, o.Message, tt.message)
		})
	}
}

func TestComponentPresence(t *testing.T) {
	s := newState(t, func(r *registry.Registry, _ *viper.Viper) {
		r.MustRegister(registry.Component{
			Name:     "myCluster",
			Type:     "test.MockCluster",
			Provides: []string{"docstore.Cluster"},
			Instance: struct{}{},
		})
	})

	assert.False(t, evaluate(t, condition.RequiresNoExistingComponent("docstore.Cluster"), s))
	assert.True(t, evaluate(t, condition.RequiresNoExistingComponent("docstore.Environment"), s))
	assert.True(t, evaluate(t, condition.RequiresComponent("docstore.Cluster"), s))
	assert.False(t, evaluate(t, condition.RequiresComponent("cache.Manager"), s))
	assert.False(t, evaluate(t, condition.RequiresNoComponentNamed("myCluster"), s))
	assert.True(t, evaluate(t, condition.RequiresNoComponentNamed("docstoreCluster"), s))
}

func TestRequiresProperty(t *testing.T) {
	s := newState(t, func(_ *registry.Registry, v *viper.Viper) {
		v.Set("docstore.connection-string", "mongodb://db:27017")
		v.Set("cache.type", "Redis")
		v.Set("feature.enabled", "false")
	})

	assert.True(t, evaluate(t, condition.RequiresProperty("docstore.connection-string"), s))
	assert.False(t, evaluate(t, condition.RequiresProperty("docstore.username"), s))
	assert.True(t, evaluate(t, condition.RequiresProperty("cache.type", "redis"), s))
	assert.False(t, evaluate(t, condition.RequiresProperty("cache.type", "memory"), s))

	assert.False(t, evaluate(t, condition.RequiresPropertyEnabled("feature.enabled", true), s))
	assert.True(t, evaluate(t, condition.RequiresPropertyEnabled("feature.other", true), s))
	assert.False(t, evaluate(t, condition.RequiresPropertyEnabled("feature.other", false), s))
	assert.True(t, evaluate(t, condition.RequiresPropertyEnabled("cache.type", false), s))
}

func TestCompounds(t *testing.T) {
	s := newState(t, func(r *registry.Registry, v *viper.Viper) {
		require.NoError(t, r.AddType("docstore.Cluster", ""))
		v.Set("cache.type", "docstore")
	})

	yes := condition.RequiresType("docstore.Cluster")
	no := condition.RequiresType("cache.Manager")

	assert.True(t, evaluate(t, condition.All(yes, yes), s))
	assert.False(t, evaluate(t, condition.All(yes, no), s))
	assert.True(t, evaluate(t, condition.Any(no, yes), s))
	assert.False(t, evaluate(t, condition.Any(no, no), s))
	assert.True(t, evaluate(t, condition.Not(no), s))
	assert.False(t, evaluate(t, condition.Not(yes), s))

	cacheType := condition.Any(
		condition.Not(condition.RequiresProperty("cache.type")),
		condition.RequiresProperty("cache.type", "docstore"),
	)
	assert.True(t, evaluate(t, cacheType, s))
}

func TestEvaluationOrderDoesNotMatter(t *testing.T) {
	s := newState(t, func(r *registry.Registry, v *viper.Viper) {
		require.NoError(t, r.AddType("docstore.Cluster", ""))
		v.Set("docstore.connection-string", "x")
	})

	conds := []condition.Condition{
		condition.RequiresType("docstore.Cluster"),
		condition.RequiresProperty("docstore.connection-string"),
		condition.RequiresNoExistingComponent("docstore.Environment"),
		condition.Not(condition.RequiresType("cache.Manager")),
	}
	reversed := make([]condition.Condition, len(conds))
	for i, c := range conds {
		reversed[len(conds)-1-i] = c
	}

	first := make([]bool, len(conds))
	for i, c := range conds {
		first[i] = evaluate(t, c, s)
	}
	for i, c := range reversed {
		assert.Equal(t, first[len(conds)-1-i], evaluate(t, c, s))
	}
	assert.Equal(t, evaluate(t, condition.All(conds...), s), evaluate(t, condition.All(reversed...), s))
}

func TestMalformedConditions(t *testing.T) {
	s := newState(t, nil)

	tests := []struct {
		name  string
		cond  condition.Condition
		field string
	}{
		{"empty type", condition.RequiresType(""), "type"},
		{"blank type", condition.RequiresNoExistingComponent("  "), "type"},
		{"empty single candidate", condition.RequiresSingleCandidate(""), "type"},
		{"empty key", condition.RequiresProperty(""), "key"},
		{"two expected values", condition.RequiresProperty("a", "b", "c"), "a"},
		{"empty name", condition.RequiresNoComponentNamed(""), "name"},
		{"bad constraint", condition.RequiresTypeVersion("x", "not a version"), "constraint"},
		{"nil in All", condition.All(condition.RequiresType("x"), nil), "All[1]"},
		{"nil Not", condition.Not(nil), "Not"},
		{"nested", condition.Any(condition.Not(condition.RequiresType(""))), "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := condition.Evaluate(tt.cond, s)
			require.Error(t, err)
			assert.False(t, ok)

			var cfgErr *autoerrors.ConfigurationError
			require.True(t, stderrors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.True(t, stderrors.Is(err, autoerrors.ErrConfiguration))
		})
	}

	_, err := condition.Evaluate(nil, s)
	assert.Error(t, err)
}

func TestMalformedDetectedEvenWhenShortCircuited(t *testing.T) {
	s := newState(t, nil)

	c := condition.All(condition.RequiresType("absent"), condition.RequiresType(""))
	_, err := condition.Evaluate(c, s)
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	c := condition.All(
		condition.RequiresType("docstore.Cluster"),
		condition.Not(condition.RequiresProperty("cache.type", "redis")),
	)
	assert.Equal(t, "All(RequiresType(docstore.Cluster), Not(RequiresProperty(cache.type=redis)))", c.String())
}
