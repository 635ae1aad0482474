package extractors

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mohammad-safakhou/webscout/tools/webfetch/models"
)

// YouTube extracts video search results and watch-page metadata.
type YouTube struct{}

func (YouTube) Descriptor() Descriptor {
	return Descriptor{
		Site:        "youtube",
		Hosts:       []string{"youtube.com", "www.youtube.com"},
		SearchURL:   "https://www.youtube.com/results?search_query=[clean_term]",
		Description: "Video search results and watch page details",
	}
}

func (YouTube) Extract(pageURL *url.URL, doc *goquery.Document, html string, maxChars int) (*models.PageResult, error) {
	if strings.HasPrefix(pageURL.Path, "/results") {
		return extractYouTubeSearch(pageURL, doc, maxChars)
	}
	return extractYouTubeWatch(doc, maxChars)
}

func extractYouTubeSearch(pageURL *url.URL, doc *goquery.Document, maxChars int) (*models.PageResult, error) {
	query := pageURL.Query().Get("search_query")
	result := &models.PageResult{
		Title:    "YouTube Search: " + query,
		Metadata: map[string]interface{}{"type": "search_results", "platform": "youtube", "query": query},
		Status:   200,
	}
	var lines []string
	doc.Find("ytd-video-renderer, ytd-grid-video-renderer").Each(func(i int, sel *goquery.Selection) {
		if i >= 10 {
			return
		}
		link := sel.Find("#video-title").First()
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if title == "" {
			title, _ = link.Attr("title")
		}
		abs := resolveURL(pageURL, href)
		if title == "" || abs == "" {
			return
		}
		channel := strings.TrimSpace(sel.Find("ytd-channel-name a, #channel-name a").First().Text())
		views := strings.TrimSpace(sel.Find("#metadata-line span").First().Text())
		result.Results = append(result.Results, models.CandidateResult{
			Title:      title,
			URL:        abs,
			ParentText: truncate(strings.TrimSpace(channel+" "+views), 300),
		})
		result.Links = append(result.Links, abs)
		lines = append(lines, fmt.Sprintf("%d. %s\n   Channel: %s\n   Views: %s\n   URL: %s", i+1, title, channel, views, abs))
	})
	result.Text = truncate(fmt.Sprintf("Search Results for: %s\n\nFound %d videos:\n\n%s", query, len(result.Results), strings.Join(lines, "\n\n")), maxChars)
	return result, nil
}

func extractYouTubeWatch(doc *goquery.Document, maxChars int) (*models.PageResult, error) {
	title := strings.TrimSpace(doc.Find(`meta[name="title"]`).AttrOr("content", ""))
	desc := strings.TrimSpace(doc.Find(`meta[name="description"]`).AttrOr("content", ""))
	channel := strings.TrimSpace(doc.Find(`link[itemprop="name"]`).AttrOr("content", ""))

	text := fmt.Sprintf("Video: %s\nChannel: %s\n\nDescription:\n%s", title, channel, desc)
	result := &models.PageResult{
		Title: title,
		Text:  truncate(text, maxChars),
		Metadata: map[string]interface{}{
			"type":     "video",
			"platform": "youtube",
			"channel":  channel,
		},
		Status: 200,
		// the description expander hides the interesting part of long texts
		Interactables: []models.Interactable{
			{Type: "button", Text: "...more", Selector: "#expand"},
		},
	}
	return result, nil
}
