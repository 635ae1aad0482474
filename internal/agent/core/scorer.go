package core

import (
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mohammad-safakhou/webscout/config"
	"github.com/mohammad-safakhou/webscout/tools/webfetch/models"
)

// defaultAuthorityDomains are hosts whose results get an authority bonus when
// no allow-list is configured.
var defaultAuthorityDomains = []string{
	"github.com",
	"stackoverflow.com",
	"developer.mozilla.org",
	"npmjs.com",
	"pypi.org",
	"docs.python.org",
	"nodejs.org",
	"wikipedia.org",
	"microsoft.com",
	"google.com",
	"apple.com",
}

// defaultDenyDomains are penalized; mostly social platforms whose result rows
// rarely answer a research query.
var defaultDenyDomains = []string{
	"pinterest.com",
	"facebook.com",
	"twitter.com",
	"instagram.com",
}

// Scorer ranks candidate results for a query and grades the set as a whole.
// Safe for concurrent use; it holds no per-query state.
type Scorer struct {
	authorityDomains []string
	denyDomains      []string
	logger           *log.Logger
	now              func() time.Time
}

// NewScorer builds a scorer from config, falling back to the built-in domain
// lists when none are configured.
func NewScorer(cfg config.ScorerConfig) *Scorer {
	authority := cfg.AuthorityDomains
	if len(authority) == 0 {
		authority = defaultAuthorityDomains
	}
	deny := cfg.DenyDomains
	if len(deny) == 0 {
		deny = defaultDenyDomains
	}
	return &Scorer{
		authorityDomains: authority,
		denyDomains:      deny,
		logger:           log.New(log.Writer(), "[SCORER] ", log.LstdFlags),
		now:              time.Now,
	}
}

// ScoreResult scores a single candidate. Points are additive and the final
// score is floored at zero and rounded.
func (s *Scorer) ScoreResult(result models.CandidateResult, query string) models.CandidateResult {
	score := 0.0
	queryLower := strings.ToLower(query)
	titleLower := strings.ToLower(result.Title)
	textLower := strings.ToLower(result.ParentText)
	urlLower := strings.ToLower(result.URL)

	// Title relevance (max 50 points)
	if strings.Contains(titleLower, queryLower) {
		score += 50
	} else {
		score += wordFraction(queryLower, titleLower) * 30
	}

	// Domain authority (max 30 points); deny penalty is independent, both can
	// apply to the same URL
	for _, domain := range s.authorityDomains {
		if strings.Contains(urlLower, domain) {
			score += 30
			break
		}
	}
	for _, domain := range s.denyDomains {
		if strings.Contains(urlLower, domain) {
			score -= 20
			break
		}
	}

	// Content length tiers (max 20 points)
	switch {
	case result.WordCount > 1000:
		score += 20
	case result.WordCount > 500:
		score += 15
	case result.WordCount > 200:
		score += 10
	case result.WordCount > 50:
		score += 5
	}

	// Snippet relevance (max 15 points)
	if strings.Contains(textLower, queryLower) {
		score += 15
	} else {
		score += wordFraction(queryLower, textLower) * 10
	}

	// Freshness bonus (max 10 points), only when a timestamp is present
	if ts, ok := parseTimestamp(result.Timestamp); ok {
		daysOld := s.now().Sub(ts).Hours() / 24
		switch {
		case daysOld < 30:
			score += 10
		case daysOld < 90:
			score += 7
		case daysOld < 180:
			score += 5
		}
	}

	result.Score = int(math.Round(math.Max(0, score)))
	return result
}

// ScoreResults scores a set and returns it sorted by descending score.
func (s *Scorer) ScoreResults(results []models.CandidateResult, query string) []models.CandidateResult {
	if len(results) == 0 {
		return nil
	}

	scored := make([]models.CandidateResult, len(results))
	for i, r := range results {
		scored[i] = s.ScoreResult(r, query)
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	s.logger.Printf("Scored %d results. Average score: %d", len(scored), int(math.Round(avgScore(scored))))
	return scored
}

// AssessQuality grades a scored set. The recommendation is the refinement
// loop's primary termination signal.
func (s *Scorer) AssessQuality(scored []models.CandidateResult) QualityAssessment {
	if len(scored) == 0 {
		return QualityAssessment{Quality: QualityNone, AvgScore: 0, Recommendation: RecommendRetry}
	}

	avg := avgScore(scored)
	switch {
	case avg > 80:
		return QualityAssessment{Quality: QualityExcellent, AvgScore: avg, Recommendation: RecommendUse}
	case avg > 60:
		return QualityAssessment{Quality: QualityGood, AvgScore: avg, Recommendation: RecommendUse}
	case avg > 40:
		return QualityAssessment{Quality: QualityFair, AvgScore: avg, Recommendation: RecommendDeepDive}
	default:
		return QualityAssessment{Quality: QualityPoor, AvgScore: avg, Recommendation: RecommendRetry}
	}
}

func avgScore(scored []models.CandidateResult) float64 {
	sum := 0
	for _, r := range scored {
		sum += r.Score
	}
	return float64(sum) / float64(len(scored))
}

// wordFraction returns the fraction of query words present in text.
func wordFraction(query, text string) float64 {
	words := strings.Fields(query)
	if len(words) == 0 {
		return 0
	}
	matched := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			matched++
		}
	}
	return float64(matched) / float64(len(words))
}

func parseTimestamp(ts string) (time.Time, bool) {
	if ts == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
