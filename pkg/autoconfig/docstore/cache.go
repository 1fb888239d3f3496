package docstore

import (
	"context"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/docstore-boot/pkg/autoconfig"
	"github.com/kart-io/docstore-boot/pkg/cache"
	client "github.com/kart-io/docstore-boot/pkg/component/docstore"
	"github.com/kart-io/docstore-boot/pkg/component/redis"
	"github.com/kart-io/docstore-boot/pkg/condition"
	autoerrors "github.com/kart-io/docstore-boot/pkg/errors"
	"github.com/kart-io/docstore-boot/pkg/options"
	cacheopts "github.com/kart-io/docstore-boot/pkg/options/cache"
	dsopts "github.com/kart-io/docstore-boot/pkg/options/docstore"
)

// CacheGuard gates every cache manager definition.
func CacheGuard() condition.Condition {
	return condition.All(
		condition.RequiresType(TypeCacheManager),
		condition.RequiresNoExistingComponent(TypeCacheManager),
	)
}

// cacheDefinitions returns one cache manager definition per backend. At
// most one matches: cache.type selects it and an absent cache.type selects
// the document store. The memory backend keeps entries until evicted.
func cacheDefinitions() []autoconfig.Definition {
	return autoconfig.Guard(CacheGuard(),
		autoconfig.Definition{
			Name:      NameDocstoreCacheManager,
			Type:      TypeCacheManager,
			DependsOn: []string{NameDatabase},
			Condition: condition.All(
				condition.Any(
					condition.Not(condition.RequiresProperty(cacheopts.KeyType)),
					condition.RequiresProperty(cacheopts.KeyType, cacheopts.TypeDocstore),
				),
				condition.RequiresSingleCandidate(TypeDatabase),
			),
			Factory: newDocstoreCacheManager,
		},
		autoconfig.Definition{
			Name: NameRedisClient,
			Type: TypeRedisClient,
			Condition: condition.All(
				condition.RequiresProperty(cacheopts.KeyType, cacheopts.TypeRedis),
				condition.RequiresNoExistingComponent(TypeRedisClient),
			),
			Factory: newRedisClient,
		},
		autoconfig.Definition{
			Name:      NameRedisCacheManager,
			Type:      TypeCacheManager,
			DependsOn: []string{NameRedisClient},
			Condition: condition.All(
				condition.RequiresProperty(cacheopts.KeyType, cacheopts.TypeRedis),
				condition.RequiresSingleCandidate(TypeRedisClient),
			),
			Factory: newRedisCacheManager,
		},
		autoconfig.Definition{
			Name:      NameMemoryCacheManager,
			Type:      TypeCacheManager,
			Condition: condition.RequiresProperty(cacheopts.KeyType, cacheopts.TypeMemory),
			Factory:   newMemoryCacheManager,
		},
	)
}

func cacheOptions(r *autoconfig.Resolver) (*cacheopts.Options, error) {
	opts, err := cacheopts.FromProperties(r.Properties())
	if err != nil {
		return nil, err
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, autoerrors.NewConfigurationError(errs[0].Error(), "cache")
	}
	return opts, nil
}

func buildManager(r *autoconfig.Resolver, store cache.Store, expiry time.Duration, names []string) *cache.Manager {
	m := cache.NewManager(store, cache.Config{EntryExpiry: expiry, InitialNames: names})
	m.Customize(autoconfig.AllAs[cache.ManagerCustomizer](r, TypeCacheCustomizer)...)
	logger.Infow("Cache manager created", "store", store.Name(), "caches", m.Names(), "expiry", expiry)
	return m
}

func newDocstoreCacheManager(ctx context.Context, r *autoconfig.Resolver) (any, error) {
	opts, err := cacheOptions(r)
	if err != nil {
		return nil, err
	}
	db, err := autoconfig.GetAs[*client.Database](r, TypeDatabase)
	if err != nil {
		return nil, err
	}

	store := cache.NewDocstoreStore(db.Raw())
	autoIndex, err := options.Bool(r.Properties(), dsopts.KeyAutoIndex)
	if err != nil {
		return nil, err
	}
	if autoIndex != nil && *autoIndex && opts.DocstoreExpiration > 0 {
		for _, name := range opts.CacheNames {
			if err := store.EnsureExpiryIndex(ctx, name); err != nil {
				return nil, autoerrors.ErrConnectionFailed.
					WithMessagef("cannot create the expiry index of cache %s", name).WithCause(err)
			}
		}
	}
	return buildManager(r, store, opts.DocstoreExpiration, opts.CacheNames), nil
}

func newRedisClient(ctx context.Context, r *autoconfig.Resolver) (any, error) {
	opts, err := cacheOptions(r)
	if err != nil {
		return nil, err
	}
	return redis.New(ctx, redis.Config{Address: opts.RedisAddress})
}

func newRedisCacheManager(_ context.Context, r *autoconfig.Resolver) (any, error) {
	opts, err := cacheOptions(r)
	if err != nil {
		return nil, err
	}
	rc, err := autoconfig.GetAs[*redis.Client](r, TypeRedisClient)
	if err != nil {
		return nil, err
	}
	return buildManager(r, cache.NewRedisStore(rc.Client()), opts.RedisTimeToLive, opts.CacheNames), nil
}

func newMemoryCacheManager(_ context.Context, r *autoconfig.Resolver) (any, error) {
	opts, err := cacheOptions(r)
	if err != nil {
		return nil, err
	}
	return buildManager(r, cache.NewMemoryStore(), 0, opts.CacheNames), nil
}
