package extractors

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mohammad-safakhou/webscout/tools/webfetch/models"
)

// AccuWeather extracts location disambiguation lists and current conditions.
type AccuWeather struct{}

func (AccuWeather) Descriptor() Descriptor {
	return Descriptor{
		Site:        "accuweather",
		Hosts:       []string{"accuweather.com", "www.accuweather.com"},
		SearchURL:   "https://www.accuweather.com/en/search-locations?query=[clean_term]",
		Description: "Location search and current weather conditions",
	}
}

func (AccuWeather) Extract(pageURL *url.URL, doc *goquery.Document, html string, maxChars int) (*models.PageResult, error) {
	conditions := doc.Find(".cur-con-weather-card__body").First()
	locations := doc.Find(".locations-list a, .search-results a, .results-list a")

	// a location list without current conditions means the query was ambiguous
	if locations.Length() > 0 && conditions.Length() == 0 {
		result := &models.PageResult{
			Metadata: map[string]interface{}{"type": "location_list", "platform": "accuweather"},
			Status:   200,
		}
		var names []string
		locations.Each(func(_ int, sel *goquery.Selection) {
			href, _ := sel.Attr("href")
			name := strings.TrimSpace(sel.Text())
			abs := resolveURL(pageURL, href)
			if name == "" || abs == "" {
				return
			}
			result.Results = append(result.Results, models.CandidateResult{Title: name, URL: abs})
			names = append(names, name)
			if len(result.Links) < 5 {
				result.Links = append(result.Links, abs)
			}
		})
		result.Text = truncate("AccuWeather Locations:\n\nMultiple locations found. Please select one:\n"+strings.Join(names, "\n"), maxChars)
		return result, nil
	}

	temp := strings.TrimSpace(conditions.Find(".temp").First().Text())
	phrase := strings.TrimSpace(conditions.Find(".phrase").First().Text())
	realFeel := strings.TrimSpace(strings.ReplaceAll(conditions.Find(".real-feel").First().Text(), "RealFeel®", ""))

	details := map[string]string{}
	doc.Find(".details-container .detail").Each(func(_ int, item *goquery.Selection) {
		label := strings.TrimSpace(item.Find(".label").First().Text())
		value := strings.TrimSpace(item.Find(".value").First().Text())
		if value == "" {
			if parts := strings.SplitN(strings.TrimSpace(item.Text()), "\n", 2); len(parts) == 2 {
				value = strings.TrimSpace(parts[1])
			}
		}
		if label != "" {
			details[label] = value
		}
	})

	var lines []string
	lines = append(lines, "Current Weather:", "Temp: "+temp, "Condition: "+phrase, "RealFeel: "+realFeel, "", "Details:")
	for k, v := range details {
		lines = append(lines, fmt.Sprintf("%s: %s", k, v))
	}

	return &models.PageResult{
		Text: truncate("AccuWeather Forecast:\n\n"+strings.Join(lines, "\n"), maxChars),
		Metadata: map[string]interface{}{
			"type":     "weather",
			"platform": "accuweather",
			"current":  map[string]string{"temp": temp, "condition": phrase, "real_feel": realFeel},
			"details":  details,
		},
		Status: 200,
	}, nil
}
