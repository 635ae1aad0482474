package session

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve"
	"github.com/google/uuid"

	"github.com/mohammad-safakhou/webscout/tools/webfetch/models"
)

// DocChunk is one indexed slice of a page's text.
type DocChunk struct {
	DocID       string    `json:"doc_id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Text        string    `json:"text"`
	ContentHash string    `json:"content_hash"`
	IngestedAt  time.Time `json:"ingested_at"`
	ChunkIndex  int       `json:"chunk_index"`
}

// Session tracks one query run: an append-only provenance chain of page
// snapshots plus a BM25 index over their text for synthesis context. Each
// refinement appends a fresh snapshot; earlier ones are never mutated.
type Session struct {
	id    string
	pages []*models.PageResult
	index bleve.Index
	meta  map[string]DocChunk
	mu    sync.RWMutex
}

// New creates an empty session with an in-memory index.
func New() (*Session, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	return &Session{
		id:    uuid.NewString(),
		index: index,
		meta:  make(map[string]DocChunk),
	}, nil
}

func (s *Session) ID() string { return s.id }

// Append records a page snapshot and indexes its text.
func (s *Session) Append(page *models.PageResult) error {
	if page == nil {
		return nil
	}

	s.mu.Lock()
	s.pages = append(s.pages, page)
	s.mu.Unlock()

	text := strings.TrimSpace(page.Text)
	if text == "" {
		return nil
	}
	hash := sha1Hex(text)
	now := time.Now()
	for i, part := range makeChunks(text, 1000, 200) {
		chunk := DocChunk{
			DocID:       fmt.Sprintf("%s#%03d", hash, i),
			URL:         page.URL,
			Title:       page.Title,
			Text:        part,
			ContentHash: hash,
			IngestedAt:  now,
			ChunkIndex:  i,
		}
		s.mu.Lock()
		s.meta[chunk.DocID] = chunk
		err := s.index.Index(chunk.DocID, chunk)
		s.mu.Unlock()
		if err != nil {
			return fmt.Errorf("failed to index chunk: %w", err)
		}
	}
	return nil
}

// Current returns the most recent snapshot, or nil.
func (s *Session) Current() *models.PageResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.pages) == 0 {
		return nil
	}
	return s.pages[len(s.pages)-1]
}

// History returns the snapshots oldest-first.
func (s *Session) History() []*models.PageResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.PageResult, len(s.pages))
	copy(out, s.pages)
	return out
}

// Provenance returns a copy of the current snapshot with its predecessors
// linked through OriginalSearch, oldest at the tail. The stored snapshots stay
// unlinked so the chain can never go cyclic.
func (s *Session) Provenance() *models.PageResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.pages) == 0 {
		return nil
	}

	var chained *models.PageResult
	for _, page := range s.pages {
		cp := *page
		cp.OriginalSearch = chained
		chained = &cp
	}
	return chained
}

// Relevant returns the text of the top-k chunks matching the query.
func (s *Session) Relevant(query string, k int) []string {
	if k <= 0 {
		return nil
	}

	q := bleve.NewQueryStringQuery(query)
	searchReq := bleve.NewSearchRequestOptions(q, k*3, 0, false)
	res, err := s.index.Search(searchReq)
	if err != nil {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, hit := range res.Hits {
		chunk, ok := s.meta[hit.ID]
		if !ok {
			continue
		}
		out = append(out, chunk.Text)
		if len(out) >= k {
			break
		}
	}
	return out
}

// Close releases the index.
func (s *Session) Close() error {
	return s.index.Close()
}

func sha1Hex(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

func makeChunks(text string, approx, overlap int) []string {
	text = strings.TrimSpace(text)
	if len(text) <= approx {
		return []string{text}
	}
	var chunks []string
	for start := 0; start < len(text); {
		end := start + approx
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
		start = end - overlap
		if start < 0 {
			start = 0
		}
	}
	return chunks
}
