package cache

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// keySeparator joins the cache name and the entry key.
const keySeparator = "::"

// RedisStore is a Store keeping entries as redis strings keyed
// "<cache>::<key>".
type RedisStore struct {
	client goredis.UniversalClient
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a store over client.
func NewRedisStore(client goredis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Name implements Store.
func (s *RedisStore) Name() string { return "redis" }

func redisKey(cache, key string) string {
	return cache + keySeparator + key
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, cache, key string) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, redisKey(cache, key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, cache, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, redisKey(cache, key), value, ttl).Err()
}

// Evict implements Store.
func (s *RedisStore) Evict(ctx context.Context, cache, key string) error {
	return s.client.Del(ctx, redisKey(cache, key)).Err()
}

// Clear implements Store. Keys are collected with SCAN and deleted in
// batches.
func (s *RedisStore) Clear(ctx context.Context, cache string) error {
	const batch = 100

	iter := s.client.Scan(ctx, 0, redisKey(cache, "*"), batch).Iterator()
	keys := make([]string, 0, batch)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == batch {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return s.client.Del(ctx, keys...).Err()
	}
	return nil
}
