package cache

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"
)

// fieldExpiresAt holds the expiry instant of a cached entry.
const fieldExpiresAt = "expiresAt"

// DocstoreStore is a Store keeping each cache in its own collection. An
// entry is a document whose _id is the key; expired entries are ignored on
// read and removed by Evict or Clear.
type DocstoreStore struct {
	db  *mongo.Database
	now func() time.Time
}

var _ Store = (*DocstoreStore)(nil)

// NewDocstoreStore creates a store over db.
func NewDocstoreStore(db *mongo.Database) *DocstoreStore {
	return &DocstoreStore{db: db, now: time.Now}
}

// Name implements Store.
func (s *DocstoreStore) Name() string { return "docstore" }

type cachedEntry struct {
	Key       string     `bson:"_id"`
	Value     []byte     `bson:"value"`
	ExpiresAt *time.Time `bson:"expiresAt,omitempty"`
}

// liveFilter matches key when it has no expiry or has not expired yet.
func (s *DocstoreStore) liveFilter(key string) bson.D {
	return bson.D{
		{Key: "_id", Value: key},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: fieldExpiresAt, Value: bson.D{{Key: "$exists", Value: false}}}},
			bson.D{{Key: fieldExpiresAt, Value: bson.D{{Key: "$gt", Value: s.now()}}}},
		}},
	}
}

// Get implements Store.
func (s *DocstoreStore) Get(ctx context.Context, cache, key string) ([]byte, bool, error) {
	var e cachedEntry
	err := s.db.Collection(cache).FindOne(ctx, s.liveFilter(key)).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return e.Value, true, nil
}

func (s *DocstoreStore) entry(key string, value []byte, ttl time.Duration) cachedEntry {
	e := cachedEntry{Key: key, Value: value}
	if ttl > 0 {
		at := s.now().Add(ttl)
		e.ExpiresAt = &at
	}
	return e
}

// Put implements Store.
func (s *DocstoreStore) Put(ctx context.Context, cache, key string, value []byte, ttl time.Duration) error {
	_, err := s.db.Collection(cache).ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: key}},
		s.entry(key, value, ttl),
		mongoopts.Replace().SetUpsert(true))
	return err
}

// Evict implements Store.
func (s *DocstoreStore) Evict(ctx context.Context, cache, key string) error {
	_, err := s.db.Collection(cache).DeleteOne(ctx, bson.D{{Key: "_id", Value: key}})
	return err
}

// Clear implements Store.
func (s *DocstoreStore) Clear(ctx context.Context, cache string) error {
	_, err := s.db.Collection(cache).DeleteMany(ctx, bson.D{})
	return err
}

// EnsureExpiryIndex creates a TTL index so the server removes expired
// entries of cache.
func (s *DocstoreStore) EnsureExpiryIndex(ctx context.Context, cache string) error {
	_, err := s.db.Collection(cache).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: fieldExpiresAt, Value: 1}},
		Options: mongoopts.Index().SetName(cache + "_expiry_idx").SetExpireAfterSeconds(0),
	})
	return err
}
