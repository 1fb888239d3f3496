// Package cache provides cache manager configuration options.
package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/docstore-boot/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Namespace keys.
const (
	KeyType               = "cache.type"
	KeyCacheNames         = "cache.cache-names"
	KeyDocstoreExpiration = "cache.docstore.expiration"
	KeyRedisAddress       = "cache.redis.address"
	KeyRedisTimeToLive    = "cache.redis.time-to-live"
)

// Cache backends.
const (
	TypeDocstore = "docstore"
	TypeRedis    = "redis"
	TypeMemory   = "memory"
)

// Options configure the cache manager.
type Options struct {
	// Type selects the backend. Empty means docstore.
	Type string `json:"type" mapstructure:"type"`

	// CacheNames are created eagerly, in this order.
	CacheNames []string `json:"cache-names" mapstructure:"cache-names"`

	// DocstoreExpiration is the entry expiry of the docstore backend. Zero
	// means entries never expire.
	DocstoreExpiration time.Duration `json:"docstore-expiration" mapstructure:"docstore-expiration"`

	// RedisAddress is the host:port of the redis backend.
	RedisAddress string `json:"redis-address" mapstructure:"redis-address"`

	// RedisTimeToLive is the entry expiry of the redis backend.
	RedisTimeToLive time.Duration `json:"redis-time-to-live" mapstructure:"redis-time-to-live"`
}

// NewOptions creates default cache options.
func NewOptions() *Options {
	return &Options{
		RedisAddress: "127.0.0.1:6379",
	}
}

// AddFlags adds flags for cache options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...)
	fs.StringVar(&o.Type, p+KeyType, o.Type, "Cache backend (docstore|redis|memory).")
	fs.StringSliceVar(&o.CacheNames, p+KeyCacheNames, o.CacheNames, "Caches to create on startup.")
	fs.DurationVar(&o.DocstoreExpiration, p+KeyDocstoreExpiration, o.DocstoreExpiration, "Entry expiry of the docstore cache.")
	fs.StringVar(&o.RedisAddress, p+KeyRedisAddress, o.RedisAddress, "Address of the redis cache backend.")
	fs.DurationVar(&o.RedisTimeToLive, p+KeyRedisTimeToLive, o.RedisTimeToLive, "Entry expiry of the redis cache.")
}

// Complete normalizes the backend name.
func (o *Options) Complete() error {
	o.Type = strings.ToLower(strings.TrimSpace(o.Type))
	return nil
}

// Validate validates the cache options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch strings.ToLower(o.Type) {
	case "", TypeDocstore, TypeRedis, TypeMemory:
	default:
		errs = append(errs, fmt.Errorf("%s: unknown cache type %q", KeyType, o.Type))
	}
	if o.DocstoreExpiration < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyDocstoreExpiration))
	}
	if o.RedisTimeToLive < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyRedisTimeToLive))
	}
	if strings.EqualFold(o.Type, TypeRedis) && o.RedisAddress == "" {
		errs = append(errs, fmt.Errorf("%s is required for the redis cache", KeyRedisAddress))
	}
	return errs
}

// FromProperties reads the cache options from a configuration namespace.
func FromProperties(p options.Getter) (*Options, error) {
	o := NewOptions()

	if v, err := options.String(p, KeyType); err != nil {
		return nil, err
	} else if v != nil {
		o.Type = *v
	}

	names, err := options.StringSlice(p, KeyCacheNames)
	if err != nil {
		return nil, err
	}
	o.CacheNames = names

	if d, err := options.Duration(p, KeyDocstoreExpiration); err != nil {
		return nil, err
	} else if d != nil {
		o.DocstoreExpiration = *d
	}
	if v, err := options.String(p, KeyRedisAddress); err != nil {
		return nil, err
	} else if v != nil {
		o.RedisAddress = *v
	}
	if d, err := options.Duration(p, KeyRedisTimeToLive); err != nil {
		return nil, err
	} else if d != nil {
		o.RedisTimeToLive = *d
	}

	if err := o.Complete(); err != nil {
		return nil, err
	}
	return o, nil
}
