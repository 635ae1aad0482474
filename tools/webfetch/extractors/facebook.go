package extractors

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mohammad-safakhou/webscout/tools/webfetch/models"
)

// Facebook extracts post, video and page metadata. Class names are
// obfuscated, so extraction leans on Open Graph tags, ARIA roles and the
// longest meaningful text block.
type Facebook struct{}

func (Facebook) Descriptor() Descriptor {
	return Descriptor{
		Site:        "facebook",
		Hosts:       []string{"facebook.com", "www.facebook.com", "m.facebook.com", "fb.watch"},
		Description: "Post, video and page metadata (direct URLs only)",
	}
}

var (
	fbLikesRe     = regexp.MustCompile(`(?i)([\d.,]+[KMB]?)\s+Likes?`)
	fbCommentsRe  = regexp.MustCompile(`(?i)([\d.,]+[KMB]?)\s+Comments?`)
	fbSharesRe    = regexp.MustCompile(`(?i)([\d.,]+[KMB]?)\s+Shares?`)
	fbFollowersRe = regexp.MustCompile(`(?i)([\d.,]+[KMB]?)\s+followers?`)
)

func (Facebook) Extract(pageURL *url.URL, doc *goquery.Document, html string, maxChars int) (*models.PageResult, error) {
	title := metaContent(doc, "og:title")
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	title = strings.Replace(title, " | Facebook", "", 1)
	desc := metaContent(doc, "og:description")
	if desc == "" {
		desc = doc.Find(`meta[name="description"]`).AttrOr("content", "")
	}
	imageURL := metaContent(doc, "og:image")
	videoURL := metaContent(doc, "og:video")

	kind := facebookKind(pageURL)

	if kind == "profile" {
		followers := firstMatch(fbFollowersRe, desc)
		likes := firstMatch(fbLikesRe, desc)
		// the category/bio usually follows the first sentence of the description
		bio := ""
		if parts := strings.SplitN(desc, ". ", 2); len(parts) > 1 {
			bio = parts[1]
		}

		text := fmt.Sprintf("Profile: %s\n\nBio/Info: %s\n\nStats:\nFollowers: %s\nLikes: %s",
			title, bio, followers, likes)
		result := &models.PageResult{
			Title:     title,
			Text:      truncate(text, maxChars),
			WordCount: countWords(bio),
			Metadata: map[string]interface{}{
				"platform":  "facebook",
				"type":      "profile",
				"name":      title,
				"bio":       bio,
				"followers": followers,
				"likes":     likes,
				"imageUrl":  imageURL,
			},
			Status: 200,
		}
		if imageURL != "" {
			result.Links = []string{imageURL}
		}
		return result, nil
	}

	postText := facebookPostText(doc)
	if postText == "" {
		postText = desc
	}
	author := facebookAuthor(doc, title)
	likes := firstMatch(fbLikesRe, desc)
	comments := firstMatch(fbCommentsRe, desc)
	shares := firstMatch(fbSharesRe, desc)

	text := fmt.Sprintf("%s\n\nAuthor: %s\nType: %s\n\nStats:\nLikes: %s\nComments: %s\nShares: %s",
		postText, author, kind, likes, comments, shares)
	result := &models.PageResult{
		Title:     title,
		Text:      truncate(text, maxChars),
		WordCount: countWords(postText),
		Metadata: map[string]interface{}{
			"platform": "facebook",
			"type":     kind,
			"author":   author,
			"caption":  truncate(postText, 500),
			"likes":    likes,
			"comments": comments,
			"shares":   shares,
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

func facebookKind(pageURL *url.URL) string {
	path := pageURL.Path
	switch {
	case pageURL.Hostname() == "fb.watch", strings.Contains(path, "/video/"), strings.Contains(path, "/watch"):
		return "video"
	case strings.Contains(path, "/reel/"):
		return "reel"
	case strings.Contains(path, "/posts/"), strings.Contains(path, "/media/"):
		return "post"
	default:
		return "profile"
	}
}

// facebookPostText picks the longest meaningful text block; the post body is
// usually the largest dir=auto container that is not reaction chrome.
func facebookPostText(doc *goquery.Document) string {
	var blocks []string
	doc.Find(`div[data-ad-preview="message"], div[dir="auto"]`).Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) <= 5 || strings.Contains(text, "Comment") || strings.Contains(text, "Share") {
			return
		}
		blocks = append(blocks, text)
	})
	if len(blocks) == 0 {
		return ""
	}
	sort.Slice(blocks, func(i, j int) bool { return len(blocks[i]) > len(blocks[j]) })
	return blocks[0]
}

func facebookAuthor(doc *goquery.Document, title string) string {
	author := strings.TrimSpace(doc.Find(`h3 strong a, h3 a, h2 strong a, h2 a, [role="article"] h3 span`).First().Text())
	if author != "" {
		return author
	}
	if parts := regexp.MustCompile(`[|\-–]`).Split(title, 2); len(parts) > 1 {
		return strings.TrimSpace(parts[0])
	}
	return ""
}
