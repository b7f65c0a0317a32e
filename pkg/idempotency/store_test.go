package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreFirstUseOnly(t *testing.T) {
	s := NewMemoryStore(time.Hour)

	seen, err := s.Seen(context.Background(), "k1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = s.Seen(context.Background(), "k1")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = s.Seen(context.Background(), "k2")
	require.NoError(t, err)
	assert.False(t, seen, "other keys unaffected")
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	seen, err := s.Seen(context.Background(), "k")
	require.NoError(t, err)
	require.False(t, seen)

	now = now.Add(2 * time.Minute)
	seen, err = s.Seen(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, seen, "expired entry forgotten")
}

func TestRedisStoreFirstUseOnly(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(rdb, time.Hour)

	seen, err := s.Seen(context.Background(), CheckoutKey("abc"))
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = s.Seen(context.Background(), CheckoutKey("abc"))
	require.NoError(t, err)
	assert.True(t, seen)

	assert.True(t, mr.Exists(CheckoutKey("abc")))
}

func TestRedisStoreTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(rdb, time.Minute)

	_, err := s.Seen(context.Background(), "k")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	seen, err := s.Seen(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestCheckoutKeyNamespace(t *testing.T) {
	assert.Equal(t, "pos:checkout:xyz", CheckoutKey("xyz"))
}
