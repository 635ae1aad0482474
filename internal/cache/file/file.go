package file

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mohammad-safakhou/webscout/internal/cache/store"
)

const cacheFileName = "cache.json"

type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // epoch millis
}

// Store is a durable file-backed cache. The whole store is rewritten on every
// mutation; entry counts are small so this is cheaper than it looks, and the
// temp-file + rename keeps a crash mid-write from corrupting the previous
// state. A single mutex serializes concurrent writers sharing one store.
type Store struct {
	mu      sync.Mutex
	path    string
	ttl     time.Duration
	entries map[string]entry
	hits    int
	misses  int
	logger  *log.Logger
}

// NewStore loads (or initializes) a cache file under dataDir.
func NewStore(dataDir string, ttl time.Duration) (*Store, error) {
	if dataDir == "" {
		dataDir = "data"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	s := &Store{
		path:    filepath.Join(dataDir, cacheFileName),
		ttl:     ttl,
		entries: make(map[string]entry),
		logger:  log.New(log.Writer(), "[CACHE] ", log.LstdFlags),
	}
	s.load()
	return s, nil
}

func (s *Store) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Printf("failed to load cache: %v", err)
		}
		return
	}
	var entries map[string]entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		// corrupt backing file behaves as an empty cache
		s.logger.Printf("failed to load cache: %v", err)
		return
	}
	s.entries = entries
	s.logger.Printf("loaded %d items from cache file", len(entries))
}

// save rewrites the full store. Caller must hold s.mu.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Get returns the cached data for key, evicting on read when the entry has
// outlived the TTL.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	cacheKey := normalize(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.entries[cacheKey]
	if !ok {
		s.misses++
		return nil, false
	}
	if time.Since(time.UnixMilli(item.Timestamp)) > s.ttl {
		delete(s.entries, cacheKey)
		s.misses++
		if err := s.save(); err != nil {
			s.logger.Printf("failed to save cache after eviction: %v", err)
		}
		return nil, false
	}
	s.hits++
	s.logger.Printf("cache HIT: %s (%d%% hit rate)", cacheKey, s.hitRate())
	return item.Data, true
}

// Set persists data synchronously before returning.
func (s *Store) Set(key string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	cacheKey := normalize(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[cacheKey] = entry{Data: raw, Timestamp: time.Now().UnixMilli()}
	return s.save()
}

// Clear removes all entries and resets counters.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	size := len(s.entries)
	s.entries = make(map[string]entry)
	s.hits = 0
	s.misses = 0
	s.logger.Printf("cache cleared: %d items removed", size)
	return s.save()
}

// Stats reports sizes and the 0-100 hit rate.
func (s *Store) Stats() store.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return store.Stats{Size: len(s.entries), Hits: s.hits, Misses: s.misses, HitRate: s.hitRate()}
}

func (s *Store) hitRate() int {
	total := s.hits + s.misses
	if total == 0 {
		return 0
	}
	return int(float64(s.hits)/float64(total)*100 + 0.5)
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
