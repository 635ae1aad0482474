package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mohammad-safakhou/webscout/config"
	"github.com/mohammad-safakhou/webscout/internal/agent/telemetry"
	"github.com/mohammad-safakhou/webscout/internal/capability"
	file_cache "github.com/mohammad-safakhou/webscout/internal/cache/file"
	"github.com/mohammad-safakhou/webscout/tools/webfetch/models"
)

// scriptedOracle returns canned responses in order; once exhausted it keeps
// returning the last one.
type scriptedOracle struct {
	mu        sync.Mutex
	responses []string
	calls     int
	prompts   []string
}

func (s *scriptedOracle) Complete(ctx context.Context, phase, prompt string, useExtendedReasoning bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	idx := s.calls
	s.calls++
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	if idx < 0 {
		return "", fmt.Errorf("no scripted response")
	}
	return s.responses[idx], nil
}

func (s *scriptedOracle) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// fakeFetcher serves canned pages by URL and counts fetches.
type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]*models.PageResult
	fetched []string
	err     error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, opts models.FetchOptions) (*models.PageResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, url)
	if f.err != nil {
		return nil, f.err
	}
	if page, ok := f.pages[url]; ok {
		cp := *page
		return &cp, nil
	}
	return &models.PageResult{URL: url, Title: "Generic", Text: "generic page", WordCount: 2, Status: 200}, nil
}

func (f *fakeFetcher) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetched)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Cache: config.CacheConfig{Type: "file", TTL: time.Hour},
		Search: config.SearchConfig{
			Engine: "bing",
			Locale: "en-US",
		},
		Agent: config.AgentConfig{
			MaxRefinements:    3,
			SynthesisMaxChars: 15000,
			SessionTopK:       3,
		},
	}
}

func newTestOrchestrator(t *testing.T, oracle LLMProvider, fetcher Fetcher) *Orchestrator {
	t.Helper()

	cfg := testConfig(t)
	cacheStore, err := file_cache.NewStore(t.TempDir(), cfg.Cache.TTL)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	registry, err := capability.NewRegistry("")
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	tel := telemetry.NewTelemetry(config.TelemetryConfig{})

	o, err := NewOrchestrator(cfg, nil, tel, registry, cacheStore, fetcher, oracle)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return o
}

func TestProcessAnswerFastPath(t *testing.T) {
	t.Parallel()

	oracle := &scriptedOracle{responses: []string{`{"action":"answer","answer":"Hello!"}`}}
	fetcher := &fakeFetcher{}
	o := newTestOrchestrator(t, oracle, fetcher)

	result, err := o.Process(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Response != "Hello!" {
		t.Fatalf("response = %q, want Hello!", result.Response)
	}
	if result.Metadata["source"] != "llm_knowledge" {
		t.Fatalf("metadata = %+v, want source llm_knowledge", result.Metadata)
	}
	if fetcher.fetchCount() != 0 {
		t.Fatalf("fast path must not fetch, got %d fetches", fetcher.fetchCount())
	}
}

func TestProcessCacheIdempotence(t *testing.T) {
	t.Parallel()

	oracle := &scriptedOracle{responses: []string{`{"action":"answer","answer":"42"}`}}
	o := newTestOrchestrator(t, oracle, &fakeFetcher{})

	first, err := o.Process(context.Background(), "What is the answer?")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	callsAfterFirst := oracle.callCount()

	second, err := o.Process(context.Background(), "What is the answer?")
	if err != nil {
		t.Fatalf("Process (cached): %v", err)
	}
	if oracle.callCount() != callsAfterFirst {
		t.Fatalf("cached call must not re-invoke the oracle: %d -> %d", callsAfterFirst, oracle.callCount())
	}
	if second.Response != first.Response {
		t.Fatalf("cached result differs: %q vs %q", second.Response, first.Response)
	}
}

func TestProcessFallbackOnBadPlan(t *testing.T) {
	t.Parallel()

	oracle := &scriptedOracle{responses: []string{
		"I am terribly sorry, I cannot produce JSON today.",
		`{"action":"answer"}`,
		"synthesized answer",
	}}
	fetcher := &fakeFetcher{pages: map[string]*models.PageResult{}}
	o := newTestOrchestrator(t, oracle, fetcher)

	result, err := o.Process(context.Background(), "obscure thing")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if fetcher.fetchCount() == 0 {
		t.Fatal("fallback plan must still fetch")
	}
	fetched := fetcher.fetched[0]
	if !strings.Contains(fetched, "bing.com/search") {
		t.Fatalf("fallback must target the default search URL, fetched %s", fetched)
	}
	if result.Plan == nil || result.Plan.Action != "search" {
		t.Fatalf("fallback plan action = %+v, want search", result.Plan)
	}
}

func TestProcessLoopTermination(t *testing.T) {
	t.Parallel()

	// Adversarial oracle: always demands another deep dive to a fresh URL.
	dive := 0
	oracle := &adversarialOracle{next: func(prompt string) string {
		if strings.Contains(prompt, "Decide if you need to SEARCH") {
			return `{"action":"search","url":"https://www.bing.com/search?q=x"}`
		}
		if strings.Contains(prompt, "DECISION RULES") {
			dive++
			return fmt.Sprintf(`{"action":"deep_dive","target_url":"https://example.com/page%d"}`, dive)
		}
		return "final text"
	}}

	poorResults := []models.CandidateResult{{Title: "zzz", URL: "https://example.com/a"}}
	fetcher := &fakeFetcher{pages: map[string]*models.PageResult{
		"https://www.bing.com/search?q=x": {
			URL:     "https://www.bing.com/search?q=x",
			Results: poorResults,
			Links:   []string{"a", "b", "c", "d", "e", "f"},
			Text:    "results",
		},
	}}
	o := newTestOrchestrator(t, oracle, fetcher)

	if _, err := o.Process(context.Background(), "endless query"); err != nil {
		t.Fatalf("Process: %v", err)
	}

	// initial fetch plus at most 3 refinement fetches
	if got := fetcher.fetchCount(); got > 4 {
		t.Fatalf("loop must stop after 3 refinements, saw %d fetches", got)
	}
	if dive > 3 {
		t.Fatalf("decision oracle consulted %d times, want at most 3", dive)
	}
}

// adversarialOracle computes each response from the prompt.
type adversarialOracle struct {
	mu   sync.Mutex
	next func(prompt string) string
}

func (a *adversarialOracle) Complete(ctx context.Context, phase, prompt string, useExtendedReasoning bool) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next(prompt), nil
}

func TestProcessWeatherProvenance(t *testing.T) {
	t.Parallel()

	searchURL := "https://www.accuweather.com/en/search-locations?query=paris"
	weatherURL := "https://www.accuweather.com/en/fr/paris/623/weather-forecast/623"

	oracle := &adversarialOracle{next: func(prompt string) string {
		switch {
		case strings.Contains(prompt, "Decide if you need to SEARCH"):
			return fmt.Sprintf(`{"action":"search","url":"%s"}`, searchURL)
		case strings.Contains(prompt, "DECISION RULES"):
			return fmt.Sprintf(`{"action":"deep_dive","target_url":"%s"}`, weatherURL)
		default:
			return "It is sunny in Paris."
		}
	}}

	fetcher := &fakeFetcher{pages: map[string]*models.PageResult{
		searchURL: {
			URL:      searchURL,
			Title:    "Location search",
			Text:     "Multiple locations found",
			Metadata: map[string]interface{}{"type": "location_list"},
			Results: []models.CandidateResult{
				{Title: "Paris, FR", URL: weatherURL},
				{Title: "Paris, TX", URL: "https://www.accuweather.com/en/us/paris-tx"},
			},
		},
		weatherURL: {
			URL:       weatherURL,
			Title:     "Paris Weather",
			Text:      strings.Repeat("sunny and mild weather in Paris today ", 40),
			WordCount: 280,
			Metadata:  map[string]interface{}{"type": "weather"},
		},
	}}
	o := newTestOrchestrator(t, oracle, fetcher)

	result, err := o.Process(context.Background(), "weather in Paris")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if result.Response != "It is sunny in Paris." {
		t.Fatalf("response = %q", result.Response)
	}
	if result.RawData == nil || result.RawData.URL != weatherURL {
		t.Fatalf("raw data should be the weather page, got %+v", result.RawData)
	}
	if result.RawData.OriginalSearch == nil || result.RawData.OriginalSearch.URL != searchURL {
		t.Fatalf("raw data must carry originalSearch provenance, got %+v", result.RawData.OriginalSearch)
	}
}

func TestProcessAntiLoopDeepDive(t *testing.T) {
	t.Parallel()

	searchURL := "https://www.bing.com/search?q=thing"
	decisions := 0
	oracle := &adversarialOracle{next: func(prompt string) string {
		switch {
		case strings.Contains(prompt, "Decide if you need to SEARCH"):
			return fmt.Sprintf(`{"action":"search","url":"%s"}`, searchURL)
		case strings.Contains(prompt, "DECISION RULES"):
			decisions++
			// insists on revisiting the page we are already on
			return fmt.Sprintf(`{"action":"deep_dive","target_url":"%s"}`, searchURL)
		default:
			return "done"
		}
	}}

	fetcher := &fakeFetcher{pages: map[string]*models.PageResult{
		searchURL: {
			URL:     searchURL,
			Results: []models.CandidateResult{{Title: "meh", URL: "https://example.com"}},
			Text:    "results",
		},
	}}
	o := newTestOrchestrator(t, oracle, fetcher)

	if _, err := o.Process(context.Background(), "thing"); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if decisions != 1 {
		t.Fatalf("a no-op deep dive must end the loop, saw %d decisions", decisions)
	}
	if fetcher.fetchCount() != 1 {
		t.Fatalf("the current URL must not be re-fetched, saw %d fetches", fetcher.fetchCount())
	}
}

func TestProcessEmptySynthesisFallback(t *testing.T) {
	t.Parallel()

	oracle := &adversarialOracle{next: func(prompt string) string {
		if strings.Contains(prompt, "Decide if you need to SEARCH") {
			return `{"action":"search","url":"https://example.com/article"}`
		}
		return "" // synthesis yields nothing
	}}
	fetcher := &fakeFetcher{pages: map[string]*models.PageResult{
		"https://example.com/article": {
			URL:       "https://example.com/article",
			Title:     "Article",
			Text:      strings.Repeat("plenty of prose here ", 60),
			WordCount: 240,
		},
	}}
	o := newTestOrchestrator(t, oracle, fetcher)

	result, err := o.Process(context.Background(), "tell me about the article")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Response != fallbackResponse {
		t.Fatalf("empty synthesis must yield the fallback message, got %q", result.Response)
	}
}

func TestProcessInitialFetchFailure(t *testing.T) {
	t.Parallel()

	oracle := &scriptedOracle{responses: []string{`{"action":"search","url":"https://example.com"}`}}
	fetcher := &fakeFetcher{err: fmt.Errorf("browser crashed")}
	o := newTestOrchestrator(t, oracle, fetcher)

	if _, err := o.Process(context.Background(), "anything"); err == nil {
		t.Fatal("initial fetch failure must surface as an error")
	}
}

// nilFetcher misbehaves by returning neither a page nor an error.
type nilFetcher struct{}

func (nilFetcher) Fetch(ctx context.Context, url string, opts models.FetchOptions) (*models.PageResult, error) {
	return nil, nil
}

func TestProcessNilPageIsFetchFailure(t *testing.T) {
	t.Parallel()

	oracle := &scriptedOracle{responses: []string{`{"action":"search","url":"https://example.com"}`}}
	o := newTestOrchestrator(t, oracle, nilFetcher{})

	if _, err := o.Process(context.Background(), "anything"); err == nil {
		t.Fatal("a nil page from the fetcher must surface as an error, not panic downstream")
	}
	if _, err := o.ProcessDirectURL(context.Background(), "https://example.com", "anything"); err == nil {
		t.Fatal("direct navigation must also reject a nil page")
	}
}

func TestProcessDirectURLFollowsList(t *testing.T) {
	t.Parallel()

	listURL := "https://www.gsmarena.com/res.php3?sSearch=pixel"
	deviceURL := "https://www.gsmarena.com/google_pixel_9-13202.php"

	oracle := &adversarialOracle{next: func(prompt string) string { return "Pixel 9 specifications summary" }}
	fetcher := &fakeFetcher{pages: map[string]*models.PageResult{
		listURL: {
			URL:      listURL,
			Metadata: map[string]interface{}{"type": "search_results"},
			Results:  []models.CandidateResult{{Title: "Google Pixel 9", URL: deviceURL}},
		},
		deviceURL: {
			URL:      deviceURL,
			Title:    "Google Pixel 9",
			Text:     "full spec table",
			Metadata: map[string]interface{}{"type": "specifications"},
		},
	}}
	o := newTestOrchestrator(t, oracle, fetcher)

	result, err := o.ProcessDirectURL(context.Background(), listURL, "pixel 9 specs")
	if err != nil {
		t.Fatalf("ProcessDirectURL: %v", err)
	}
	if result.Plan.Action != "direct_navigation" {
		t.Fatalf("plan action = %q", result.Plan.Action)
	}
	if result.RawData.URL != deviceURL {
		t.Fatalf("should auto-follow the first list entry, got %s", result.RawData.URL)
	}
	if result.RawData.OriginalSearch == nil || result.RawData.OriginalSearch.URL != listURL {
		t.Fatalf("list page must be retained as provenance, got %+v", result.RawData.OriginalSearch)
	}
}
