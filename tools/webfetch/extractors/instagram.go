package extractors

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mohammad-safakhou/webscout/tools/webfetch/models"
)

// Instagram extracts profile, post and reel metadata. Most of the useful
// signal lives in Open Graph tags since the rendered DOM is obfuscated.
type Instagram struct{}

func (Instagram) Descriptor() Descriptor {
	return Descriptor{
		Site:        "instagram",
		Hosts:       []string{"instagram.com", "www.instagram.com"},
		Description: "Profile, post and reel metadata (direct URLs only)",
	}
}

var (
	igFollowersRe = regexp.MustCompile(`(?i)([\d.,KMB]+)\s+Followers?`)
	igFollowingRe = regexp.MustCompile(`(?i)([\d.,KMB]+)\s+Following`)
	igPostsRe     = regexp.MustCompile(`(?i)([\d.,KMB]+)\s+Posts?`)
	igHandleRe    = regexp.MustCompile(`\(@([^)]+)\)`)
)

func (Instagram) Extract(pageURL *url.URL, doc *goquery.Document, html string, maxChars int) (*models.PageResult, error) {
	title := metaContent(doc, "og:title")
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	desc := metaContent(doc, "og:description")
	if desc == "" {
		desc = doc.Find(`meta[name="description"]`).AttrOr("content", "")
	}
	imageURL := metaContent(doc, "og:image")
	videoURL := metaContent(doc, "og:video")

	kind := "profile"
	switch {
	case strings.Contains(pageURL.Path, "/reel/"):
		kind = "reel"
	case strings.Contains(pageURL.Path, "/p/"):
		kind = "post"
	}

	if kind == "profile" {
		// meta description: "10K Followers, 200 Following, 500 Posts - ..."
		followers := firstMatch(igFollowersRe, desc)
		following := firstMatch(igFollowingRe, desc)
		posts := firstMatch(igPostsRe, desc)

		cleanTitle := strings.Replace(title, " • Instagram photos and videos", "", 1)
		name := strings.TrimSpace(strings.SplitN(cleanTitle, "(@", 2)[0])
		handle := firstMatch(igHandleRe, title)

		text := fmt.Sprintf("Profile: %s\n\nBio: %s\n\nStats:\nFollowers: %s\nFollowing: %s\nPosts: %s",
			cleanTitle, desc, followers, following, posts)
		result := &models.PageResult{
			Title:     cleanTitle,
			Text:      truncate(text, maxChars),
			WordCount: countWords(desc),
			Metadata: map[string]interface{}{
				"platform":  "instagram",
				"type":      "profile",
				"name":      name,
				"handle":    handle,
				"bio":       desc,
				"followers": followers,
				"following": following,
				"posts":     posts,
				"imageUrl":  imageURL,
			},
			Status: 200,
		}
		if imageURL != "" {
			result.Links = []string{imageURL}
		}
		return result, nil
	}

	caption := strings.TrimSpace(doc.Find("h1").First().Text())
	if caption == "" {
		caption = desc
	}
	author := strings.TrimSpace(strings.SplitN(title, "•", 2)[0])

	text := fmt.Sprintf("%s\n\nAuthor: %s", caption, author)
	result := &models.PageResult{
		Title:     strings.Replace(title, " • Instagram", "", 1),
		Text:      truncate(text, maxChars),
		WordCount: countWords(caption),
		Metadata: map[string]interface{}{
			"platform": "instagram",
			"type":     kind,
			"author":   author,
			"caption":  truncate(caption, 500),
			"imageUrl": imageURL,
			"videoUrl": videoURL,
		},
		Status: 200,
	}
	for _, link := range []string{videoURL, imageURL} {
		if link != "" {
			result.Links = append(result.Links, link)
		}
	}
	return result, nil
}

// metaContent reads an Open Graph (or named) meta tag.
func metaContent(doc *goquery.Document, property string) string {
	sel := fmt.Sprintf(`meta[property="%s"], meta[name="%s"]`, property, property)
	return strings.TrimSpace(doc.Find(sel).First().AttrOr("content", ""))
}

func firstMatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return ""
}
