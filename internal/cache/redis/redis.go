package redis_cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/webscout/internal/cache/store"
)

const keyPrefix = "webscout:cache:"

// Store is a redis-backed cache. TTL enforcement is delegated to per-key
// expirations, so there is no evict-on-read pass; hit/miss counters are kept
// in-process.
type Store struct {
	client *redis.Client
	ttl    time.Duration

	mu     sync.Mutex
	hits   int
	misses int
}

func NewStore(addr, password string, db int, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Store{client: rdb, ttl: ttl}
}

func (s *Store) Get(key string) (json.RawMessage, bool) {
	ctx := context.Background()
	val, err := s.client.Get(ctx, keyPrefix+normalize(key)).Bytes()
	if err != nil {
		// redis.Nil and transport errors alike are misses; the cache fails open
		s.mu.Lock()
		s.misses++
		s.mu.Unlock()
		return nil, false
	}
	s.mu.Lock()
	s.hits++
	s.mu.Unlock()
	return val, true
}

func (s *Store) Set(key string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	ctx := context.Background()
	return s.client.Set(ctx, keyPrefix+normalize(key), raw, s.ttl).Err()
}

func (s *Store) Clear() error {
	ctx := context.Background()
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.hits = 0
	s.misses = 0
	s.mu.Unlock()
	return nil
}

func (s *Store) Stats() store.Stats {
	ctx := context.Background()
	size := 0
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		size++
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	total := s.hits + s.misses
	rate := 0
	if total > 0 {
		rate = int(float64(s.hits)/float64(total)*100 + 0.5)
	}
	return store.Stats{Size: size, Hits: s.hits, Misses: s.misses, HitRate: rate}
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
