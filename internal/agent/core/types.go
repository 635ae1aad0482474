package core

import (
	"context"

	"github.com/mohammad-safakhou/webscout/tools/webfetch/models"
)

// Plan is the initial action decision made once per query: search the web or
// answer from model knowledge.
type Plan struct {
	Action    string `json:"action"` // search | answer | direct_navigation
	URL       string `json:"url,omitempty"`
	Answer    string `json:"answer,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Decision is a per-iteration refinement choice made when fetched content is
// judged insufficient.
type Decision struct {
	Action    string `json:"action"` // answer | deep_dive | click | hover | scroll_to
	TargetURL string `json:"target_url,omitempty"`
	Selector  string `json:"selector,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Quality grades for a scored result set.
const (
	QualityNone      = "none"
	QualityPoor      = "poor"
	QualityFair      = "fair"
	QualityGood      = "good"
	QualityExcellent = "excellent"
)

// Recommendations derived from a quality grade.
const (
	RecommendUse      = "use"
	RecommendDeepDive = "deep_dive"
	RecommendRetry    = "retry"
	RecommendInteract = "interact"
)

// QualityAssessment is the scorer's verdict over one result set. Derived, not
// persisted.
type QualityAssessment struct {
	Quality        string  `json:"quality"`
	AvgScore       float64 `json:"avg_score"`
	Recommendation string  `json:"recommendation"`
}

// Result is the terminal output of one query run. Either Response is set or
// the run failed before producing anything cacheable.
type Result struct {
	Response string                 `json:"response"`
	Plan     *Plan                  `json:"plan,omitempty"`
	RawData  *models.PageResult     `json:"rawData,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// runState tracks one query through the refinement loop. Mutated only by the
// orchestrator, discarded at loop exit.
type runState struct {
	query     string
	plan      *Plan
	page      *models.PageResult
	loopCount int
}

// LLMProvider is the decision oracle: free-form text in, free-form text out.
// Callers must treat the output as unreliable and run it through ExtractJSON.
type LLMProvider interface {
	// Complete sends a prompt and returns the raw completion text. phase is
	// one of "plan", "decision" or "synthesis" and selects the routed model.
	Complete(ctx context.Context, phase, prompt string, useExtendedReasoning bool) (string, error)
}

// Fetcher acquires a rendered page. Mirrors webfetch.Fetcher so tests can
// substitute a scripted fake.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts models.FetchOptions) (*models.PageResult, error)
}
