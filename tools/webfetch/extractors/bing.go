package extractors

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mohammad-safakhou/webscout/tools/webfetch/models"
)

// Bing extracts organic result rows from a Bing results page.
type Bing struct{}

func (Bing) Descriptor() Descriptor {
	return Descriptor{
		Site:        "bing",
		Hosts:       []string{"bing.com", "www.bing.com"},
		SearchURL:   "https://www.bing.com/search?q=[clean_term]",
		Description: "Default search engine result extraction",
	}
}

func (Bing) Extract(pageURL *url.URL, doc *goquery.Document, html string, maxChars int) (*models.PageResult, error) {
	result := &models.PageResult{
		Metadata: map[string]interface{}{"type": "search_results", "platform": "bing"},
		Status:   200,
	}

	doc.Find("li.b_algo").Each(func(_ int, sel *goquery.Selection) {
		link := sel.Find("h2 a").First()
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if title == "" || !strings.HasPrefix(href, "http") {
			return
		}
		if isInternalResult(href) {
			return
		}
		snippet := strings.TrimSpace(sel.Find("p").First().Text())
		result.Results = append(result.Results, models.CandidateResult{
			Title:      title,
			URL:        href,
			ParentText: truncate(strings.ReplaceAll(snippet, "\n", " "), 300),
		})
	})

	result.Text = truncate(strings.TrimSpace(doc.Find("#b_results").Text()), maxChars)
	result.IsBlocked = detectBlocked(doc)
	return result, nil
}

// isInternalResult filters search-engine chrome and ad links out of the
// organic rows.
func isInternalResult(href string) bool {
	lower := strings.ToLower(href)
	if strings.Contains(lower, "bing.com") && !strings.Contains(lower, "/ck/") {
		return true
	}
	return strings.Contains(lower, "go.microsoft.com")
}
