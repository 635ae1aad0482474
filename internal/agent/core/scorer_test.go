package core

import (
	"testing"
	"time"

	"github.com/mohammad-safakhou/webscout/config"
	"github.com/mohammad-safakhou/webscout/tools/webfetch/models"
)

func newTestScorer() *Scorer {
	s := NewScorer(config.ScorerConfig{})
	s.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestScoreResultPointTable(t *testing.T) {
	t.Parallel()

	s := newTestScorer()
	query := "golang concurrency patterns"

	tests := []struct {
		name   string
		result models.CandidateResult
		want   int
	}{
		{
			name:   "full title match",
			result: models.CandidateResult{Title: "Golang Concurrency Patterns explained", URL: "https://example.com"},
			want:   50,
		},
		{
			name:   "partial title match two of three words",
			result: models.CandidateResult{Title: "concurrency patterns in Java", URL: "https://example.com"},
			want:   20,
		},
		{
			name:   "authority bonus",
			result: models.CandidateResult{Title: "golang concurrency patterns", URL: "https://github.com/golang/go"},
			want:   80,
		},
		{
			name:   "deny penalty floors at zero",
			result: models.CandidateResult{Title: "unrelated", URL: "https://pinterest.com/pin/1"},
			want:   0,
		},
		{
			name: "content length tier",
			result: models.CandidateResult{
				Title:     "golang concurrency patterns",
				URL:       "https://example.com",
				WordCount: 1200,
			},
			want: 70,
		},
		{
			name: "snippet full match",
			result: models.CandidateResult{
				Title:      "golang concurrency patterns",
				URL:        "https://example.com",
				ParentText: "a guide to golang concurrency patterns for engineers",
			},
			want: 65,
		},
		{
			name: "freshness under 30 days",
			result: models.CandidateResult{
				Title:     "golang concurrency patterns",
				URL:       "https://example.com",
				Timestamp: "2025-05-20",
			},
			want: 60,
		},
		{
			name: "freshness under 90 days",
			result: models.CandidateResult{
				Title:     "golang concurrency patterns",
				URL:       "https://example.com",
				Timestamp: "2025-04-01",
			},
			want: 57,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := s.ScoreResult(tt.result, query)
			if got.Score != tt.want {
				t.Fatalf("score = %d, want %d", got.Score, tt.want)
			}
		})
	}
}

func TestScoreResultMonotonicity(t *testing.T) {
	t.Parallel()

	s := newTestScorer()
	query := "weather in paris"

	without := s.ScoreResult(models.CandidateResult{Title: "Forecast for the city", URL: "https://example.com"}, query)
	with := s.ScoreResult(models.CandidateResult{Title: "Forecast for the city weather in paris", URL: "https://example.com"}, query)

	if with.Score <= without.Score {
		t.Fatalf("appending the query to the title must increase the score: %d <= %d", with.Score, without.Score)
	}
}

func TestScoreResultsSortsDescending(t *testing.T) {
	t.Parallel()

	s := newTestScorer()
	scored := s.ScoreResults([]models.CandidateResult{
		{Title: "unrelated", URL: "https://example.com"},
		{Title: "weather in paris", URL: "https://example.com"},
		{Title: "paris things to do", URL: "https://example.com"},
	}, "weather in paris")

	for i := 1; i < len(scored); i++ {
		if scored[i].Score > scored[i-1].Score {
			t.Fatalf("results not sorted descending: %+v", scored)
		}
	}
	if scored[0].Title != "weather in paris" {
		t.Fatalf("full match should rank first: %+v", scored)
	}
}

func TestAssessQuality(t *testing.T) {
	t.Parallel()

	s := newTestScorer()

	tests := []struct {
		name           string
		scores         []int
		quality        string
		recommendation string
	}{
		{"excellent", []int{90, 85}, QualityExcellent, RecommendUse},
		{"good", []int{70, 60}, QualityGood, RecommendUse},
		{"fair", []int{50, 40}, QualityFair, RecommendDeepDive},
		{"poor", []int{20, 10}, QualityPoor, RecommendRetry},
		{"empty", nil, QualityNone, RecommendRetry},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var scored []models.CandidateResult
			for _, sc := range tt.scores {
				scored = append(scored, models.CandidateResult{Score: sc})
			}
			got := s.AssessQuality(scored)
			if got.Quality != tt.quality || got.Recommendation != tt.recommendation {
				t.Fatalf("AssessQuality(%v) = %+v, want %s/%s", tt.scores, got, tt.quality, tt.recommendation)
			}
		})
	}
}
