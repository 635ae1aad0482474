package extractors

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/mohammad-safakhou/webscout/tools/webfetch/models"
)

// Descriptor describes a site-specific extraction capability. The capability
// registry feeds these to the planner so queries matching a known domain are
// biased toward the specialized search format.
type Descriptor struct {
	Site        string   `json:"site"`
	Hosts       []string `json:"hosts"`
	SearchURL   string   `json:"search_url"`
	Description string   `json:"description"`
}

// Extractor turns a rendered page into a normalized content record.
type Extractor interface {
	Descriptor() Descriptor
	Extract(pageURL *url.URL, doc *goquery.Document, html string, maxChars int) (*models.PageResult, error)
}

// siteExtractors is ordered; the first host match wins. Generic is the
// fallback and is deliberately not listed as a capability.
var siteExtractors = []Extractor{
	&Bing{},
	&GitHub{},
	&YouTube{},
	&GSMArena{},
	&AccuWeather{},
	&Instagram{},
	&Facebook{},
}

// Descriptors returns the specialized (non-generic) capability descriptors in
// registration order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(siteExtractors))
	for _, e := range siteExtractors {
		out = append(out, e.Descriptor())
	}
	return out
}

// ForURL picks the extractor responsible for a page.
func ForURL(u *url.URL) Extractor {
	host := strings.ToLower(u.Hostname())
	for _, e := range siteExtractors {
		for _, h := range e.Descriptor().Hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return e
			}
		}
	}
	return &Generic{}
}

// Extract parses rendered HTML and dispatches to the matching site extractor.
func Extract(pageURL, html string, maxChars int) (*models.PageResult, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	result, err := ForURL(u).Extract(u, doc, html, maxChars)
	if err != nil {
		return nil, err
	}
	result.URL = pageURL
	result.FetchedAt = time.Now()
	if result.Title == "" {
		result.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if result.WordCount == 0 {
		result.WordCount = countWords(result.Text)
	}
	if len(result.Links) == 0 {
		result.Links = collectLinks(doc, u)
	}
	if len(result.Interactables) == 0 {
		result.Interactables = collectInteractables(doc)
	}
	if !result.IsBlocked {
		result.IsBlocked = detectBlocked(doc)
	}
	return result, nil
}

// Generic handles any page without a specialized extractor: readability text
// plus link/interactable discovery.
type Generic struct{}

func (Generic) Descriptor() Descriptor {
	return Descriptor{Site: "generic", Description: "Fallback readability extraction"}
}

func (Generic) Extract(pageURL *url.URL, doc *goquery.Document, html string, maxChars int) (*models.PageResult, error) {
	result := &models.PageResult{
		Metadata: map[string]interface{}{"type": "article", "platform": "generic"},
		Status:   200,
	}
	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err == nil {
		result.Title = strings.TrimSpace(article.Title)
		text := strings.TrimSpace(article.TextContent)
		if maxChars > 0 && len(text) > maxChars {
			text = text[:maxChars]
		}
		result.Text = text
	} else {
		// readability can reject thin pages; fall back to body text
		result.Text = truncate(strings.TrimSpace(doc.Find("body").Text()), maxChars)
	}
	result.WordCount = countWords(result.Text)
	return result, nil
}

var blockedMarkers = []string{
	"solve the challenge",
	"check your browser",
	"unusual traffic",
	"verify you are a human",
}

func detectBlocked(doc *goquery.Document) bool {
	body := strings.ToLower(doc.Find("body").Text())
	for _, m := range blockedMarkers {
		if strings.Contains(body, m) {
			return true
		}
	}
	return false
}

func collectLinks(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		abs := resolveURL(base, href)
		if abs == "" {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})
	return links
}

func collectInteractables(doc *goquery.Document) []models.Interactable {
	var out []models.Interactable
	doc.Find("button, input[type=submit], a[role=button], [aria-expanded]").Each(func(i int, sel *goquery.Selection) {
		if i >= 20 {
			return
		}
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			text, _ = sel.Attr("aria-label")
		}
		out = append(out, models.Interactable{
			Type:     goquery.NodeName(sel),
			Text:     truncate(text, 80),
			Selector: cssPath(sel),
		})
	})
	return out
}

// cssPath builds a best-effort selector for an element: id when present,
// otherwise tag plus classes.
func cssPath(sel *goquery.Selection) string {
	if id, ok := sel.Attr("id"); ok && id != "" {
		return "#" + id
	}
	name := goquery.NodeName(sel)
	if class, ok := sel.Attr("class"); ok && class != "" {
		parts := strings.Fields(class)
		if len(parts) > 2 {
			parts = parts[:2]
		}
		return name + "." + strings.Join(parts, ".")
	}
	return name
}

func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

func truncate(s string, max int) string {
	if max > 0 && len(s) > max {
		return s[:max]
	}
	return s
}
