package extractors

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/mohammad-safakhou/webscout/tools/webfetch/models"
)

// GitHub extracts search result rows, repository overviews and file views.
type GitHub struct{}

func (GitHub) Descriptor() Descriptor {
	return Descriptor{
		Site:        "github",
		Hosts:       []string{"github.com"},
		SearchURL:   "https://github.com/search?q=[clean_term]",
		Description: "Repository search, repo overviews and file contents",
	}
}

func (GitHub) Extract(pageURL *url.URL, doc *goquery.Document, html string, maxChars int) (*models.PageResult, error) {
	path := pageURL.Path
	if strings.HasPrefix(path, "/search") || strings.HasPrefix(path, "/topics/") {
		return extractGitHubSearch(pageURL, doc, maxChars)
	}
	if parts := strings.Split(strings.Trim(path, "/"), "/"); len(parts) >= 3 && parts[2] == "blob" {
		return extractGitHubBlob(doc, maxChars)
	}
	return extractGitHubRepo(pageURL, doc, html, maxChars)
}

func extractGitHubSearch(pageURL *url.URL, doc *goquery.Document, maxChars int) (*models.PageResult, error) {
	query := pageURL.Query().Get("q")
	result := &models.PageResult{
		Title:    "GitHub Search: " + query,
		Metadata: map[string]interface{}{"type": "search_results", "platform": "github", "query": query},
		Status:   200,
	}
	var lines []string
	doc.Find(`[data-testid="results-list"] > div, .repo-list-item`).Each(func(i int, sel *goquery.Selection) {
		if i >= 10 {
			return
		}
		link := sel.Find(`a[href^="/"]`).First()
		href, _ := link.Attr("href")
		name := strings.TrimSpace(link.Text())
		if name == "" {
			name = strings.TrimPrefix(href, "/")
		}
		abs := resolveURL(pageURL, href)
		if abs == "" || name == "" {
			return
		}
		desc := strings.TrimSpace(sel.Find("p, span[class*=Text]").First().Text())
		result.Results = append(result.Results, models.CandidateResult{Title: name, URL: abs, ParentText: truncate(desc, 300)})
		result.Links = append(result.Links, abs)
		lines = append(lines, fmt.Sprintf("• %s\n  %s\n  %s", name, desc, abs))
	})
	result.Text = truncate(fmt.Sprintf("Search Results for %q\n\n%s", query, strings.Join(lines, "\n\n")), maxChars)
	return result, nil
}

func extractGitHubBlob(doc *goquery.Document, maxChars int) (*models.PageResult, error) {
	var code strings.Builder
	doc.Find(".blob-code-inner").Each(func(_ int, sel *goquery.Selection) {
		code.WriteString(sel.Text())
		code.WriteByte('\n')
	})
	raw := code.String()
	if raw == "" {
		raw = doc.Find(`textarea[aria-label="file content"]`).Text()
	}
	return &models.PageResult{
		Text: truncate(raw, maxChars),
		Metadata: map[string]interface{}{
			"type":     "code",
			"platform": "github",
			"lines":    strings.Count(raw, "\n"),
		},
		Status: 200,
	}, nil
}

func extractGitHubRepo(pageURL *url.URL, doc *goquery.Document, html string, maxChars int) (*models.PageResult, error) {
	about := strings.TrimSpace(doc.Find(".f4.my-3, p.f4").First().Text())
	stars := strings.TrimSpace(doc.Find("#repo-stars-counter-star").First().Text())
	forks := strings.TrimSpace(doc.Find("#repo-network-counter").First().Text())

	readme := ""
	if article, err := readability.FromReader(strings.NewReader(html), pageURL); err == nil {
		readme = strings.TrimSpace(article.TextContent)
	}

	text := about
	if stars != "" || forks != "" {
		text += fmt.Sprintf("\n\nStars: %s  Forks: %s", stars, forks)
	}
	if readme != "" {
		text += "\n\nREADME:\n" + readme
	}
	return &models.PageResult{
		Text: truncate(strings.TrimSpace(text), maxChars),
		Metadata: map[string]interface{}{
			"type":     "repository",
			"platform": "github",
			"stars":    stars,
			"forks":    forks,
		},
		Status: 200,
	}, nil
}
