package telemetry

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mohammad-safakhou/webscout/config"
)

// Telemetry provides in-process monitoring and cost tracking for query runs.
type Telemetry struct {
	config      config.TelemetryConfig
	logger      *log.Logger
	metrics     *Metrics
	costTracker *CostTracker
	mu          sync.RWMutex
}

// Metrics holds various performance metrics
type Metrics struct {
	// Query metrics
	TotalQueries          int64
	SuccessfulQueries     int64
	FailedQueries         int64
	CacheHits             int64
	AverageProcessingTime time.Duration

	// Phase metrics (plan, decision, synthesis)
	PhaseExecutions   map[string]int64
	PhaseAverageTimes map[string]time.Duration

	// Refinement metrics
	RefinementLoops int64
	DeepDives       int64
	Interactions    int64

	// LLM metrics
	LLMRequests   map[string]int64
	LLMTokensUsed map[string]int64

	// Fetch metrics
	FetchRequests     int64
	FetchFailures     int64
	FetchAverageTime  time.Duration
	BlockedDetections int64
}

// CostTracker tracks costs across models and phases.
type CostTracker struct {
	ModelCosts  map[string]float64
	PhaseCosts  map[string]float64
	TotalCost   float64
	TotalTokens int64
}

// QueryEvent represents one end-to-end query run.
type QueryEvent struct {
	ID             string
	Query          string
	StartTime      time.Time
	EndTime        time.Time
	ProcessingTime time.Duration
	Success        bool
	CacheHit       bool
	Error          string
	Refinements    int
	Cost           float64
	TokensUsed     int64
}

// PhaseEvent represents one oracle-backed phase inside a run.
type PhaseEvent struct {
	Phase      string // plan, decision, synthesis
	Model      string
	Duration   time.Duration
	Success    bool
	Cost       float64
	TokensUsed int64
}

// FetchEvent represents one page fetch.
type FetchEvent struct {
	URL      string
	Duration time.Duration
	Success  bool
	Blocked  bool
}

// NewTelemetry creates a new telemetry instance
func NewTelemetry(config config.TelemetryConfig) *Telemetry {
	return &Telemetry{
		config: config,
		logger: log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		metrics: &Metrics{
			PhaseExecutions:   make(map[string]int64),
			PhaseAverageTimes: make(map[string]time.Duration),
			LLMRequests:       make(map[string]int64),
			LLMTokensUsed:     make(map[string]int64),
		},
		costTracker: &CostTracker{
			ModelCosts: make(map[string]float64),
			PhaseCosts: make(map[string]float64),
		},
	}
}

// RecordQueryEvent records a complete query run.
func (t *Telemetry) RecordQueryEvent(ctx context.Context, event QueryEvent) {
	if !t.config.Enabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics.TotalQueries++
	if event.Success {
		t.metrics.SuccessfulQueries++
	} else {
		t.metrics.FailedQueries++
	}
	if event.CacheHit {
		t.metrics.CacheHits++
	}
	t.metrics.RefinementLoops += int64(event.Refinements)

	if t.metrics.TotalQueries == 1 {
		t.metrics.AverageProcessingTime = event.ProcessingTime
	} else {
		total := t.metrics.AverageProcessingTime * time.Duration(t.metrics.TotalQueries-1)
		t.metrics.AverageProcessingTime = (total + event.ProcessingTime) / time.Duration(t.metrics.TotalQueries)
	}

	t.costTracker.TotalCost += event.Cost
	t.costTracker.TotalTokens += event.TokensUsed

	t.logger.Printf("Query Event: ID=%s, Success=%t, CacheHit=%t, Refinements=%d, Duration=%v, Cost=$%.4f",
		event.ID, event.Success, event.CacheHit, event.Refinements, event.ProcessingTime, event.Cost)
}

// RecordPhaseEvent records one plan/decision/synthesis phase.
func (t *Telemetry) RecordPhaseEvent(ctx context.Context, event PhaseEvent) {
	if !t.config.Enabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics.PhaseExecutions[event.Phase]++
	executions := t.metrics.PhaseExecutions[event.Phase]

	currentAvg := t.metrics.PhaseAverageTimes[event.Phase]
	if executions == 1 {
		t.metrics.PhaseAverageTimes[event.Phase] = event.Duration
	} else {
		total := currentAvg * time.Duration(executions-1)
		t.metrics.PhaseAverageTimes[event.Phase] = (total + event.Duration) / time.Duration(executions)
	}

	if event.Model != "" {
		t.metrics.LLMRequests[event.Model]++
		t.metrics.LLMTokensUsed[event.Model] += event.TokensUsed
		t.costTracker.ModelCosts[event.Model] += event.Cost
	}

	t.costTracker.TotalCost += event.Cost
	t.costTracker.TotalTokens += event.TokensUsed
	t.costTracker.PhaseCosts[event.Phase] += event.Cost
}

// RecordLLMUsage records model-level token usage and cost. Called by the
// provider itself so every completion is accounted for regardless of which
// phase issued it.
func (t *Telemetry) RecordLLMUsage(model string, inputTokens, outputTokens int64, cost float64) {
	if !t.config.Enabled || !t.config.CostTracking {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics.LLMRequests[model]++
	t.metrics.LLMTokensUsed[model] += inputTokens + outputTokens
	t.costTracker.ModelCosts[model] += cost
	t.costTracker.TotalCost += cost
	t.costTracker.TotalTokens += inputTokens + outputTokens
}

// RecordFetchEvent records one page fetch.
func (t *Telemetry) RecordFetchEvent(ctx context.Context, event FetchEvent) {
	if !t.config.Enabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics.FetchRequests++
	if !event.Success {
		t.metrics.FetchFailures++
	}
	if event.Blocked {
		t.metrics.BlockedDetections++
	}

	if t.metrics.FetchRequests == 1 {
		t.metrics.FetchAverageTime = event.Duration
	} else {
		total := t.metrics.FetchAverageTime * time.Duration(t.metrics.FetchRequests-1)
		t.metrics.FetchAverageTime = (total + event.Duration) / time.Duration(t.metrics.FetchRequests)
	}
}

// RecordRefinement counts one refinement action by kind (deep_dive or interaction).
func (t *Telemetry) RecordRefinement(deepDive bool) {
	if !t.config.Enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if deepDive {
		t.metrics.DeepDives++
	} else {
		t.metrics.Interactions++
	}
}

// GetMetrics returns current metrics snapshot
func (t *Telemetry) GetMetrics() Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	metrics := *t.metrics
	metrics.PhaseExecutions = make(map[string]int64)
	metrics.PhaseAverageTimes = make(map[string]time.Duration)
	metrics.LLMRequests = make(map[string]int64)
	metrics.LLMTokensUsed = make(map[string]int64)

	for k, v := range t.metrics.PhaseExecutions {
		metrics.PhaseExecutions[k] = v
	}
	for k, v := range t.metrics.PhaseAverageTimes {
		metrics.PhaseAverageTimes[k] = v
	}
	for k, v := range t.metrics.LLMRequests {
		metrics.LLMRequests[k] = v
	}
	for k, v := range t.metrics.LLMTokensUsed {
		metrics.LLMTokensUsed[k] = v
	}

	return metrics
}

// GetCostSummary returns current cost summary
func (t *Telemetry) GetCostSummary() CostSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	summary := CostSummary{
		TotalCost:   t.costTracker.TotalCost,
		TotalTokens: t.costTracker.TotalTokens,
		ModelCosts:  make(map[string]float64),
		PhaseCosts:  make(map[string]float64),
	}
	for k, v := range t.costTracker.ModelCosts {
		summary.ModelCosts[k] = v
	}
	for k, v := range t.costTracker.PhaseCosts {
		summary.PhaseCosts[k] = v
	}
	return summary
}

// CostSummary provides a summary of costs
type CostSummary struct {
	TotalCost   float64
	TotalTokens int64
	ModelCosts  map[string]float64
	PhaseCosts  map[string]float64
}

// Shutdown logs a final report.
func (t *Telemetry) Shutdown() {
	if !t.config.Enabled {
		return
	}

	metrics := t.GetMetrics()
	costs := t.GetCostSummary()

	t.logger.Printf("Final Report:")
	t.logger.Printf("  Total Queries: %d", metrics.TotalQueries)
	if metrics.TotalQueries > 0 {
		t.logger.Printf("  Success Rate: %.2f%%", float64(metrics.SuccessfulQueries)/float64(metrics.TotalQueries)*100)
		t.logger.Printf("  Cache Hit Rate: %.2f%%", float64(metrics.CacheHits)/float64(metrics.TotalQueries)*100)
	}
	t.logger.Printf("  Average Processing Time: %v", metrics.AverageProcessingTime)
	t.logger.Printf("  Total Cost: $%.4f", costs.TotalCost)
	t.logger.Printf("  Total Tokens: %d", costs.TotalTokens)
}

// GetPerformanceReport returns a detailed performance report
func (t *Telemetry) GetPerformanceReport() string {
	metrics := t.GetMetrics()
	costs := t.GetCostSummary()

	report := fmt.Sprintf(`
=== PERFORMANCE REPORT ===
Overall:
  Total Queries: %d (success %d, failed %d, cache hits %d)
  Average Processing Time: %v
  Refinements: %d loops (%d deep dives, %d interactions)
  Fetches: %d (%d failed, %d blocked), %v avg
  Total Cost: $%.4f
  Total Tokens: %d

Phase Performance:
`, metrics.TotalQueries, metrics.SuccessfulQueries, metrics.FailedQueries, metrics.CacheHits,
		metrics.AverageProcessingTime,
		metrics.RefinementLoops, metrics.DeepDives, metrics.Interactions,
		metrics.FetchRequests, metrics.FetchFailures, metrics.BlockedDetections, metrics.FetchAverageTime,
		costs.TotalCost, costs.TotalTokens)

	for phase, executions := range metrics.PhaseExecutions {
		report += fmt.Sprintf("  %s: %d executions, %v avg time, $%.4f\n",
			phase, executions, metrics.PhaseAverageTimes[phase], costs.PhaseCosts[phase])
	}

	report += "\nLLM Usage:\n"
	for model, requests := range metrics.LLMRequests {
		report += fmt.Sprintf("  %s: %d requests, %d tokens, $%.4f\n",
			model, requests, metrics.LLMTokensUsed[model], costs.ModelCosts[model])
	}

	return report
}
