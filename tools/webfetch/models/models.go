package models

import "time"

// Interaction is a low-level page action executed before extraction.
type Interaction struct {
	Type     string `json:"type"` // click|type|hover|scroll_to|wait
	Selector string `json:"selector,omitempty"`
	Value    string `json:"value,omitempty"` // text for type, millis for wait
}

// FetchOptions controls a single fetch.
type FetchOptions struct {
	// Interactions are executed in order before extraction.
	Interactions []Interaction `json:"interactions,omitempty"`
	// ExtractContent enables the site-aware content extraction pass.
	ExtractContent bool `json:"extract_content"`
}

// Interactable describes a button/input the agent could act on.
type Interactable struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Selector string `json:"selector"`
}

// CandidateResult is a single organic result row inside a PageResult.
// Score stays zero until the scorer has run.
type CandidateResult struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	ParentText string `json:"parent_text,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
	WordCount  int    `json:"word_count,omitempty"`
	Score      int    `json:"score,omitempty"`
}

// PageResult is the normalized content record produced by one fetch.
// Refinements never mutate a PageResult; each iteration produces a fresh one
// and the superseded record is kept for provenance, surfaced in serialized
// output as original_search.
type PageResult struct {
	URL            string                 `json:"url"`
	Title          string                 `json:"title"`
	Text           string                 `json:"text,omitempty"`
	WordCount      int                    `json:"word_count"`
	Results        []CandidateResult      `json:"results,omitempty"`
	Links          []string               `json:"links,omitempty"`
	Interactables  []Interactable         `json:"interactables,omitempty"`
	IsBlocked      bool                   `json:"is_blocked,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	HTMLHash       string                 `json:"html_hash,omitempty"`
	Status         int                    `json:"status,omitempty"`
	RenderMS       int                    `json:"render_ms,omitempty"`
	FetchedAt      time.Time              `json:"fetched_at,omitempty"`
	OriginalSearch *PageResult            `json:"original_search,omitempty"`
}

// PageType reads the extractor-assigned metadata type, if any.
func (p *PageResult) PageType() string {
	if p == nil || p.Metadata == nil {
		return ""
	}
	t, _ := p.Metadata["type"].(string)
	return t
}
