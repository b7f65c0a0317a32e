package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store answers whether a key has been used before, marking it used in the
// same step. The first caller for a key gets false, every later caller true.
type Store interface {
	Seen(ctx context.Context, key string) (bool, error)
}

func CheckoutKey(key string) string {
	return "pos:checkout:" + key
}

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// MemoryStore is the fallback for terminals running without redis. Same
// semantics, process-local only.
type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:  ttl,
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

func (s *MemoryStore) Seen(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, at := range s.seen {
		if s.ttl > 0 && now.Sub(at) > s.ttl {
			delete(s.seen, k)
		}
	}

	if _, ok := s.seen[key]; ok {
		return true, nil
	}
	s.seen[key] = now
	return false, nil
}
