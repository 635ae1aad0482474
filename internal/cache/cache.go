package cache

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/webscout/config"
	"github.com/mohammad-safakhou/webscout/internal/cache/file"
	redis_cache "github.com/mohammad-safakhou/webscout/internal/cache/redis"
	"github.com/mohammad-safakhou/webscout/internal/cache/store"
)

type StoreType string

const (
	FileStore  StoreType = "file"
	RedisStore StoreType = "redis"
)

// NewStore creates a cache store from configuration.
func NewStore(cfg config.CacheConfig) (store.Store, error) {
	switch StoreType(cfg.Type) {
	case FileStore, "":
		return file.NewStore(cfg.File.DataDir, cfg.TTL)
	case RedisStore:
		return redis_cache.NewStore(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unsupported cache store type: %s", cfg.Type)
	}
}

// NormalizeKey canonicalizes a cache key: string keys are lower-cased and
// trimmed, anything else is serialized structurally.
func NormalizeKey(key interface{}) string {
	if s, ok := key.(string); ok {
		return strings.ToLower(strings.TrimSpace(s))
	}
	b, err := json.Marshal(key)
	if err != nil {
		return fmt.Sprintf("%v", key)
	}
	return string(b)
}
