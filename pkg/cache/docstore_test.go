package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestDocstoreStore_EntryDocument(t *testing.T) {
	clock := newFakeClock()
	s := &DocstoreStore{now: clock.Now}

	forever := s.entry("k", []byte("v"), 0)
	raw, err := bson.Marshal(forever)
	require.NoError(t, err)
	_, err = bson.Raw(raw).LookupErr(fieldExpiresAt)
	assert.Error(t, err, "entries without expiry carry no expiresAt field")

	expiring := s.entry("k", []byte("v"), time.Minute)
	require.NotNil(t, expiring.ExpiresAt)
	assert.Equal(t, clock.Now().Add(time.Minute), *expiring.ExpiresAt)

	raw, err = bson.Marshal(expiring)
	require.NoError(t, err)
	assert.Equal(t, "k", bson.Raw(raw).Lookup("_id").StringValue())
}

func TestDocstoreStore_LiveFilter(t *testing.T) {
	clock := newFakeClock()
	s := &DocstoreStore{now: clock.Now}

	f := s.liveFilter("k")
	require.Len(t, f, 2)
	assert.Equal(t, bson.E{Key: "_id", Value: "k"}, f[0])

	or, ok := f[1].Value.(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, bson.D{{Key: fieldExpiresAt, Value: bson.D{{Key: "$gt", Value: clock.Now()}}}}, or[1])
	assert.Equal(t, "docstore", s.Name())
}
