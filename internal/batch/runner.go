package batch

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/mohammad-safakhou/webscout/config"
	"github.com/mohammad-safakhou/webscout/internal/agent/core"
)

// Processor resolves a single query. Satisfied by core.Orchestrator.
type Processor interface {
	Process(ctx context.Context, query string) (*core.Result, error)
}

// Entry is the outcome of one query in a batch run.
type Entry struct {
	Query    string       `json:"query"`
	Result   *core.Result `json:"result,omitempty"`
	Error    string       `json:"error,omitempty"`
	Duration string       `json:"duration"`
}

// Report is the exported output of a batch run.
type Report struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Total      int       `json:"total"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Entries    []Entry   `json:"entries"`
}

// Runner executes queries sequentially with pacing between them, so a batch
// never hammers the search engine or the model API. Failures are recorded and
// the run continues; parallel fan-out is deliberately not done since each
// query already drives a whole browser.
type Runner struct {
	processor Processor
	limiter   *rate.Limiter
	logger    *log.Logger
	output    string
}

// NewRunner builds a runner. ratePerMinute <= 0 disables pacing.
func NewRunner(processor Processor, cfg config.BatchConfig) *Runner {
	var limiter *rate.Limiter
	if cfg.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RatePerMinute)/60.0), 1)
	}
	return &Runner{
		processor: processor,
		limiter:   limiter,
		logger:    log.New(log.Writer(), "[BATCH] ", log.LstdFlags),
		output:    cfg.OutputFile,
	}
}

// Run processes the queries in order and returns the report. The report is
// also written to the configured output file when one is set.
func (r *Runner) Run(ctx context.Context, queries []string) (*Report, error) {
	report := &Report{StartedAt: time.Now(), Total: len(queries)}

	for i, query := range queries {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return report, err
			}
		}

		r.logger.Printf("Query %d/%d: %q", i+1, len(queries), query)
		start := time.Now()
		result, err := r.processor.Process(ctx, query)

		entry := Entry{Query: query, Duration: time.Since(start).String()}
		if err != nil {
			entry.Error = err.Error()
			report.Failed++
			r.logger.Printf("Query %d failed: %v", i+1, err)
		} else {
			entry.Result = result
			report.Succeeded++
		}
		report.Entries = append(report.Entries, entry)
	}

	report.FinishedAt = time.Now()

	if r.output != "" {
		if err := r.export(report); err != nil {
			r.logger.Printf("Warning: failed to export report: %v", err)
		}
	}
	return report, nil
}

func (r *Runner) export(report *Report) error {
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(r.output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(r.output, raw, 0o644)
}
