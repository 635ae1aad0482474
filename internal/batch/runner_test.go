package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mohammad-safakhou/webscout/config"
	"github.com/mohammad-safakhou/webscout/internal/agent/core"
)

type stubProcessor struct {
	calls []string
	fail  map[string]bool
}

func (s *stubProcessor) Process(ctx context.Context, query string) (*core.Result, error) {
	s.calls = append(s.calls, query)
	if s.fail[query] {
		return nil, fmt.Errorf("boom")
	}
	return &core.Result{Response: "answer for " + query}, nil
}

func TestRunContinuesPastFailures(t *testing.T) {
	t.Parallel()

	proc := &stubProcessor{fail: map[string]bool{"bad": true}}
	runner := NewRunner(proc, config.BatchConfig{})

	report, err := runner.Run(context.Background(), []string{"good", "bad", "also good"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Total != 3 || report.Succeeded != 2 || report.Failed != 1 {
		t.Fatalf("unexpected report counts: %+v", report)
	}
	if len(proc.calls) != 3 {
		t.Fatalf("a failed query must not stop the batch, processed %d", len(proc.calls))
	}
	if report.Entries[1].Error == "" {
		t.Fatal("failed entry should record its error")
	}
	if report.Entries[0].Result.Response != "answer for good" {
		t.Fatalf("unexpected first entry: %+v", report.Entries[0])
	}
}

func TestRunExportsReport(t *testing.T) {
	t.Parallel()

	output := filepath.Join(t.TempDir(), "out", "results.json")
	runner := NewRunner(&stubProcessor{}, config.BatchConfig{OutputFile: output})

	if _, err := runner.Run(context.Background(), []string{"q1"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	raw, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	var report Report
	if err := json.Unmarshal(raw, &report); err != nil {
		t.Fatalf("report not valid JSON: %v", err)
	}
	if report.Total != 1 || report.Succeeded != 1 {
		t.Fatalf("unexpected exported report: %+v", report)
	}
}
