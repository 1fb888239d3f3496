// Package docstore holds the autoconfiguration of the document store: the
// client environment, the cluster connection, the default database, the
// object mapping and the cache manager.
package docstore

import (
	"go.mongodb.org/mongo-driver/version"

	"github.com/kart-io/docstore-boot/pkg/registry"
)

// Component types registered or consumed by the definitions.
const (
	TypeEnvironment           = "docstore.Environment"
	TypeEnvironmentCustomizer = "environment.Customizer"
	TypeCluster               = "docstore.Cluster"
	TypeDatabase              = "docstore.Database"
	TypeEntity                = "mapping.Entity"
	TypeMappingContext        = "mapping.Context"
	TypeConverter             = "mapping.Converter"
	TypeIndexes               = "mapping.Indexes"
	TypeCacheManager          = "cache.Manager"
	TypeCacheCustomizer       = "cache.ManagerCustomizer"
	TypeRedisClient           = "redis.Client"
)

// Definition names.
const (
	NameEnvironment          = "docstoreEnvironment"
	NameCluster              = "docstoreCluster"
	NameDatabase             = "docstoreDatabase"
	NameMappingContext       = "docstoreMappingContext"
	NameConverter            = "docstoreConverter"
	NameIndexes              = "docstoreIndexes"
	NameDocstoreCacheManager = "docstoreCacheManager"
	NameRedisClient          = "cacheRedisClient"
	NameRedisCacheManager    = "redisCacheManager"
	NameMemoryCacheManager   = "memoryCacheManager"
)

// RegisterTypes declares the types this binary links: the document store
// client, the object mapping and the cache manager.
func RegisterTypes(reg *registry.Registry) error {
	types := []struct{ name, version string }{
		{TypeCluster, version.Driver},
		{TypeMappingContext, ""},
		{TypeCacheManager, ""},
	}
	for _, t := range types {
		if err := reg.AddType(t.name, t.version); err != nil {
			return err
		}
	}
	return nil
}

// IndexedCollections lists the collections whose indexes were ensured on
// startup.
type IndexedCollections []string
