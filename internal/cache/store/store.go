package store

import "encoding/json"

// Store is the persistent query-result cache. Get never fails: corrupt or
// unreadable backing storage is reported as a miss so callers can always fall
// through to a fresh resolution.
type Store interface {
	Get(key string) (json.RawMessage, bool)
	Set(key string, data interface{}) error
	Clear() error
	Stats() Stats
}

// Stats exposes hit/miss counters for observability.
type Stats struct {
	Size   int `json:"size"`
	Hits   int `json:"hits"`
	Misses int `json:"misses"`
	// HitRate is a 0-100 integer.
	HitRate int `json:"hit_rate"`
}
