package file

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSetGetRoundTrip(t *testing.T) {
	t.Parallel()
	s, err := NewStore(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.Set("Query:Weather In Paris", map[string]string{"response": "sunny"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// key lookup is case-insensitive and trimmed
	raw, ok := s.Get("  query:weather in paris ")
	if !ok {
		t.Fatal("expected cache hit")
	}
	var got map[string]string
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["response"] != "sunny" {
		t.Fatalf("got %v", got)
	}
}

func TestPersistsAcrossRestart(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s, _ := NewStore(dir, time.Hour)
	if err := s.Set("query:hi", "Hello!"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	reopened, _ := NewStore(dir, time.Hour)
	raw, ok := reopened.Get("query:hi")
	if !ok {
		t.Fatal("expected hit after reopen")
	}
	var got string
	if err := json.Unmarshal(raw, &got); err != nil || got != "Hello!" {
		t.Fatalf("got %q err %v", got, err)
	}
}

func TestExpiredEntryEvictedOnRead(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s, _ := NewStore(dir, 10*time.Millisecond)
	if err := s.Set("query:stale", "old"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok := s.Get("query:stale"); ok {
		t.Fatal("expected expired entry to miss")
	}
	// eviction is persisted
	reopened, _ := NewStore(dir, time.Hour)
	if _, ok := reopened.Get("query:stale"); ok {
		t.Fatal("expected entry removed from disk")
	}
}

func TestCorruptFileFailsOpen(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cache.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewStore(dir, time.Hour)
	if err != nil {
		t.Fatalf("NewStore should not fail on corrupt file: %v", err)
	}
	if _, ok := s.Get("query:anything"); ok {
		t.Fatal("expected miss on corrupt store")
	}
	if err := s.Set("query:anything", "fresh"); err != nil {
		t.Fatalf("Set after corrupt load: %v", err)
	}
}

func TestHitRate(t *testing.T) {
	t.Parallel()
	s, _ := NewStore(t.TempDir(), time.Hour)
	_ = s.Set("query:a", 1)
	s.Get("query:a")
	s.Get("query:missing")
	st := s.Stats()
	if st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if st.HitRate != 50 {
		t.Fatalf("hit rate = %d, want 50", st.HitRate)
	}
}

func TestClear(t *testing.T) {
	t.Parallel()
	s, _ := NewStore(t.TempDir(), time.Hour)
	_ = s.Set("query:a", 1)
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if st := s.Stats(); st.Size != 0 || st.Hits != 0 || st.Misses != 0 {
		t.Fatalf("stats after clear = %+v", st)
	}
}
