package docstore

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docstore-boot/pkg/autoconfig"
	"github.com/kart-io/docstore-boot/pkg/cache"
	client "github.com/kart-io/docstore-boot/pkg/component/docstore"
	"github.com/kart-io/docstore-boot/pkg/environment"
	autoerrors "github.com/kart-io/docstore-boot/pkg/errors"
	"github.com/kart-io/docstore-boot/pkg/mapping"
	"github.com/kart-io/docstore-boot/pkg/registry"
)

const unreachable = "mongodb://127.0.0.1:1"

type Account struct {
	AccountID string `docstore:"unique"`
	Owner     string
}

func newRegistry(t *testing.T, props map[string]any) *registry.Registry {
	t.Helper()
	v := viper.New()
	for k, val := range props {
		v.Set(k, val)
	}
	reg := registry.New(v)
	require.NoError(t, RegisterTypes(reg))
	return reg
}

func run(t *testing.T, reg *registry.Registry) (*autoconfig.Engine, *autoconfig.Report) {
	t.Helper()
	engine := autoconfig.NewEngine(reg, Definitions()...)
	report, err := engine.Run(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close(context.Background()) })
	return engine, report
}

func instance[T any](t *testing.T, reg *registry.Registry, name string) T {
	t.Helper()
	c, ok := reg.Get(name)
	require.True(t, ok, "%s is not registered", name)
	v, ok := c.Instance.(T)
	require.True(t, ok, "%s is a %T", name, c.Instance)
	return v
}

func TestNothingWithoutConnectionString(t *testing.T) {
	reg := newRegistry(t, nil)
	engine, report := run(t, reg)

	assert.Empty(t, engine.Registered())
	e, ok := report.Entry(NameCluster)
	require.True(t, ok)
	assert.False(t, e.Matched)
	assert.Contains(t, e.Message, "did not find property 'docstore.connection-string'")
}

func TestNothingWithoutClientType(t *testing.T) {
	v := viper.New()
	v.Set("docstore.connection-string", unreachable)
	reg := registry.New(v)

	engine, report := run(t, reg)
	assert.Empty(t, engine.Registered())
	e, _ := report.Entry(NameEnvironment)
	assert.Contains(t, e.Message, "did not find type 'docstore.Cluster'")
}

func TestNothingWithUnsupportedDriver(t *testing.T) {
	v := viper.New()
	v.Set("docstore.connection-string", unreachable)
	reg := registry.New(v)
	require.NoError(t, reg.AddType(TypeCluster, "1.3.0"))

	engine, report := run(t, reg)
	assert.Empty(t, engine.Registered())
	e, _ := report.Entry(NameCluster)
	assert.Contains(t, e.Message, "does not satisfy "+SupportedDriver)
}

func TestFullStartup(t *testing.T) {
	reg := newRegistry(t, map[string]any{
		"docstore.connection-string":          unreachable,
		"docstore.bucket-name":                "app",
		"docstore.env.timeouts.key-value":     "9s",
		"docstore.data.field-naming-strategy": "snake",
		"cache.cache-names":                   "users,orders,users",
		"cache.docstore.expiration":           "10m",
	})
	reg.MustRegister(registry.Component{
		Name:     "accountEntity",
		Type:     TypeEntity,
		Instance: mapping.EntityDefinition{Entity: Account{}, Collection: "accounts"},
	})

	engine, report := run(t, reg)

	assert.Equal(t, []string{
		NameEnvironment, NameCluster, NameDatabase, NameMappingContext, NameConverter, NameDocstoreCacheManager,
	}, engine.Registered())

	indexes, _ := report.Entry(NameIndexes)
	assert.False(t, indexes.Matched)

	env := instance[environment.Settings](t, reg, NameEnvironment)
	assert.Equal(t, 9*time.Second, env.Timeouts().KeyValue)
	assert.True(t, env.Explicit(environment.FieldKeyValueTimeout))
	assert.False(t, env.Explicit(environment.FieldConnectTimeout))

	cluster := instance[*client.Cluster](t, reg, NameCluster)
	assert.Equal(t, env, cluster.Environment())

	db := instance[*client.Database](t, reg, NameDatabase)
	assert.Equal(t, "app", db.Name())
	assert.Same(t, cluster, db.Cluster())

	mc := instance[*mapping.Context](t, reg, NameMappingContext)
	assert.Equal(t, mapping.SnakeCase, mc.Naming())
	acct, ok := mc.Entity(Account{})
	require.True(t, ok)
	assert.Equal(t, "accounts", acct.Collection)
	assert.Equal(t, "account_id", acct.Fields[0].Name)

	conv := instance[*mapping.Converter](t, reg, NameConverter)
	assert.Same(t, mc, conv.Context())

	m := instance[*cache.Manager](t, reg, NameDocstoreCacheManager)
	assert.Equal(t, []string{"users", "orders"}, m.Names())
	assert.Equal(t, 10*time.Minute, m.EntryExpiry())
	assert.Equal(t, "docstore", m.Store().Name())
}

func TestDatabaseNeedsBucketName(t *testing.T) {
	reg := newRegistry(t, map[string]any{"docstore.connection-string": unreachable})
	engine, report := run(t, reg)

	assert.Equal(t, []string{NameEnvironment, NameCluster, NameMappingContext, NameConverter}, engine.Registered())

	db, _ := report.Entry(NameDatabase)
	assert.Contains(t, db.Message, "did not find property 'docstore.bucket-name'")
	mgr, _ := report.Entry(NameDocstoreCacheManager)
	assert.False(t, mgr.Matched)
}

func TestUserEnvironmentWins(t *testing.T) {
	reg := newRegistry(t, map[string]any{"docstore.connection-string": unreachable})

	custom, err := environment.Build(environment.Defaults(), environment.Overrides{
		QueryTimeout: environment.Ptr(time.Minute),
	})
	require.NoError(t, err)
	reg.MustRegister(registry.Component{Name: "myEnvironment", Type: TypeEnvironment, Instance: custom})

	_, report := run(t, reg)

	e, _ := report.Entry(NameEnvironment)
	assert.False(t, e.Matched)
	assert.Contains(t, e.Message, "myEnvironment")

	cluster := instance[*client.Cluster](t, reg, NameCluster)
	assert.Equal(t, time.Minute, cluster.Environment().Timeouts().Query)
}

func TestEnvironmentCustomizersRunInOrder(t *testing.T) {
	reg := newRegistry(t, map[string]any{
		"docstore.connection-string":      unreachable,
		"docstore.env.timeouts.key-value": 1000,
	})
	reg.MustRegister(registry.Component{
		Name: "double",
		Type: TypeEnvironmentCustomizer,
		Instance: environment.WithOrder(2, func(b *environment.Builder) {
			b.Timeouts.KeyValue *= 2
		}),
	})
	reg.MustRegister(registry.Component{
		Name: "addSecond",
		Type: TypeEnvironmentCustomizer,
		Instance: environment.WithOrder(1, func(b *environment.Builder) {
			b.Timeouts.KeyValue += time.Second
		}),
	})

	run(t, reg)

	env := instance[environment.Settings](t, reg, NameEnvironment)
	assert.Equal(t, 4*time.Second, env.Timeouts().KeyValue, "(1s + 1s) * 2")
}

func TestInvalidEnvironmentFailsStartup(t *testing.T) {
	reg := newRegistry(t, map[string]any{
		"docstore.connection-string":    unreachable,
		"docstore.env.io.min-endpoints": 50,
		"docstore.env.io.max-endpoints": 5,
	})

	engine := autoconfig.NewEngine(reg, Definitions()...)
	_, err := engine.Run(context.Background())
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, autoerrors.ErrConfiguration))
	assert.Empty(t, engine.Registered())
}

func TestInvalidNamingStrategyFailsStartup(t *testing.T) {
	reg := newRegistry(t, map[string]any{
		"docstore.connection-string":          unreachable,
		"docstore.data.field-naming-strategy": "kebab",
	})

	engine := autoconfig.NewEngine(reg, Definitions()...)
	defer engine.Close(context.Background())
	_, err := engine.Run(context.Background())
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, autoerrors.ErrConfiguration))
}

func TestMemoryCacheWithoutDocstore(t *testing.T) {
	reg := newRegistry(t, map[string]any{
		"cache.type":        "Memory",
		"cache.cache-names": []string{"sessions"},
	})
	reg.MustRegister(registry.Component{
		Name: "warmup",
		Type: TypeCacheCustomizer,
		Instance: cache.ManagerCustomizerFunc(func(m *cache.Manager) {
			m.Cache("warm")
		}),
	})

	engine, _ := run(t, reg)

	assert.Equal(t, []string{NameMemoryCacheManager}, engine.Registered())
	m := instance[*cache.Manager](t, reg, NameMemoryCacheManager)
	assert.Equal(t, []string{"sessions", "warm"}, m.Names())
	assert.Equal(t, "memory", m.Store().Name())
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	reg := newRegistry(t, map[string]any{
		"cache.type":               "redis",
		"cache.redis.address":      mr.Addr(),
		"cache.redis.time-to-live": "30s",
	})

	engine, _ := run(t, reg)
	assert.Equal(t, []string{NameRedisClient, NameRedisCacheManager}, engine.Registered())

	m := instance[*cache.Manager](t, reg, NameRedisCacheManager)
	require.NoError(t, m.Cache("profiles").Put(context.Background(), "ada", "Ada"))
	assert.True(t, mr.Exists("profiles::ada"))
	assert.Equal(t, 30*time.Second, mr.TTL("profiles::ada"))

	statuses := reg.HealthCheckAll(context.Background())
	require.Contains(t, statuses, NameRedisClient)
	assert.True(t, statuses[NameRedisClient].Healthy)
}

func TestExistingCacheManagerWins(t *testing.T) {
	reg := newRegistry(t, map[string]any{"cache.type": "memory"})
	reg.MustRegister(registry.Component{
		Name:     "appCache",
		Type:     TypeCacheManager,
		Instance: cache.NewManager(cache.NewMemoryStore(), cache.Config{}),
	})

	engine, report := run(t, reg)
	assert.Empty(t, engine.Registered())
	e, _ := report.Entry(NameMemoryCacheManager)
	assert.Contains(t, e.Message, "appCache")
}
