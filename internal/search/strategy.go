package search

import (
	"net/url"
	"regexp"
	"strings"
)

// Strategy resolves the default search target used when the planner fails to
// produce a usable plan. It is deterministic: the same query always yields the
// same URL, with locale-forcing parameters so results are reproducible.
type Strategy struct {
	engine string
	locale string
}

// NewStrategy builds a strategy for the given engine and locale. Only bing is
// currently implemented; unknown engines fall back to it.
func NewStrategy(engine, locale string) *Strategy {
	if engine == "" {
		engine = "bing"
	}
	if locale == "" {
		locale = "en-US"
	}
	return &Strategy{engine: engine, locale: locale}
}

// SearchURL returns the default search engine URL for a query.
func (s *Strategy) SearchURL(query string) string {
	lang, cc := splitLocale(s.locale)
	q := url.Values{}
	q.Set("q", strings.TrimSpace(query))
	q.Set("setlang", lang)
	q.Set("cc", cc)
	q.Set("PC", "U531")
	return "https://www.bing.com/search?" + q.Encode()
}

var fillerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(search for|find|get|show|check|look up|info on|details of|latest|recent|new|most)\b`),
	regexp.MustCompile(`(?i)\b(me|the|a|an|of|is|was|be|my|your|on|at|from|using|tell me about|what is|where can i find)\b`),
}

var spaceRun = regexp.MustCompile(`\s+`)

// CleanQuery strips filler words and any site-specific patterns from a query,
// leaving the bare search term.
func CleanQuery(query string, sitePatterns ...*regexp.Regexp) string {
	cleaned := query
	for _, p := range sitePatterns {
		cleaned = p.ReplaceAllString(cleaned, "")
	}
	for _, p := range fillerPatterns {
		cleaned = p.ReplaceAllString(cleaned, "")
	}
	return strings.TrimSpace(spaceRun.ReplaceAllString(cleaned, " "))
}

func splitLocale(locale string) (lang, cc string) {
	parts := strings.SplitN(locale, "-", 2)
	lang = parts[0]
	cc = "US"
	if len(parts) == 2 && parts[1] != "" {
		cc = parts[1]
	}
	return lang, cc
}
