package extractors

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mohammad-safakhou/webscout/tools/webfetch/models"
)

// GSMArena extracts device search results and specification tables.
type GSMArena struct{}

func (GSMArena) Descriptor() Descriptor {
	return Descriptor{
		Site:        "gsmarena",
		Hosts:       []string{"gsmarena.com", "www.gsmarena.com"},
		SearchURL:   "https://www.gsmarena.com/res.php3?sSearch=[clean_term]",
		Description: "Phone search results and full specification tables",
	}
}

func (GSMArena) Extract(pageURL *url.URL, doc *goquery.Document, html string, maxChars int) (*models.PageResult, error) {
	// makers list means a search/brand listing, otherwise a device spec page
	if makers := doc.Find(".makers li"); makers.Length() > 0 {
		result := &models.PageResult{
			Metadata: map[string]interface{}{"type": "search_results", "platform": "gsmarena"},
			Status:   200,
		}
		var lines []string
		makers.Each(func(_ int, sel *goquery.Selection) {
			link := sel.Find("a").First()
			href, _ := link.Attr("href")
			name := strings.TrimSpace(sel.Find("span").First().Text())
			if name == "" {
				name = strings.TrimSpace(link.Text())
			}
			abs := resolveURL(pageURL, href)
			if name == "" || abs == "" {
				return
			}
			result.Results = append(result.Results, models.CandidateResult{Title: name, URL: abs})
			lines = append(lines, fmt.Sprintf("- %s: %s", name, abs))
			if len(result.Links) < 5 {
				result.Links = append(result.Links, abs)
			}
		})
		result.Text = truncate("GSMArena Search Results:\n\n"+strings.Join(lines, "\n"), maxChars)
		return result, nil
	}

	type specRow struct {
		Category string `json:"category"`
		Name     string `json:"name"`
		Value    string `json:"value"`
	}
	var specs []specRow
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		category := ""
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			if th := row.Find("th").First(); th.Length() > 0 {
				category = strings.TrimSpace(th.Text())
			}
			ttl := strings.TrimSpace(row.Find(".ttl").First().Text())
			nfo := strings.TrimSpace(row.Find(".nfo").First().Text())
			if ttl != "" && nfo != "" {
				specs = append(specs, specRow{Category: category, Name: ttl, Value: nfo})
			}
		})
	})

	var lines []string
	for _, s := range specs {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", s.Category, s.Name, s.Value))
	}
	return &models.PageResult{
		Text:     truncate("GSMArena Specifications:\n\n"+strings.Join(lines, "\n"), maxChars),
		Metadata: map[string]interface{}{"type": "specifications", "platform": "gsmarena", "specs": specs},
		Status:   200,
	}, nil
}
