package chromedp

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/mohammad-safakhou/webscout/tools/webfetch/extractors"
	"github.com/mohammad-safakhou/webscout/tools/webfetch/models"
)

type Fetch struct {
	Timeout   time.Duration
	MaxChars  int // Maximum characters to return from the extracted text
	UserAgent string
	Headless  bool
}

// Fetch renders the page, applies any requested interactions, and runs the
// site extractor over the final DOM. Render failures (browser did not launch,
// navigation failed, timeout) are returned as errors; only extraction
// failures degrade to a bare page, since by then the navigation succeeded.
func (f *Fetch) Fetch(ctx context.Context, pageURL string, opts models.FetchOptions) (*models.PageResult, error) {
	if strings.TrimSpace(pageURL) == "" {
		return nil, errors.New("invalid url")
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()
	t0 := time.Now()

	html, err := f.renderHTML(ctx, pageURL, opts.Interactions)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", pageURL, err)
	}

	result, err := extractors.Extract(pageURL, html, f.MaxChars)
	if err != nil {
		return &models.PageResult{
			URL:       pageURL,
			Status:    200,
			RenderMS:  int(time.Since(t0) / time.Millisecond),
			FetchedAt: time.Now(),
			Metadata:  map[string]interface{}{"error": err.Error()},
		}, nil
	}

	sum := sha1.Sum([]byte(html))
	result.HTMLHash = hex.EncodeToString(sum[:])
	result.RenderMS = int(time.Since(t0) / time.Millisecond)
	return result, nil
}

func (f *Fetch) renderHTML(ctx context.Context, pageURL string, interactions []models.Interaction) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.Headless),
	)
	if f.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(f.UserAgent))
	}
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	actions := []chromedp.Action{
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	for _, in := range interactions {
		if act, err := interactionAction(in); err == nil {
			actions = append(actions, act)
		}
	}
	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(bctx, actions...); err != nil {
		return "", err
	}
	return html, nil
}

func interactionAction(in models.Interaction) (chromedp.Action, error) {
	switch in.Type {
	case "click":
		return chromedp.Click(in.Selector, chromedp.ByQuery), nil
	case "type":
		return chromedp.SendKeys(in.Selector, in.Value, chromedp.ByQuery), nil
	case "hover":
		script := fmt.Sprintf(
			`document.querySelector(%q).dispatchEvent(new MouseEvent("mouseover", {bubbles: true}))`,
			in.Selector)
		return chromedp.Evaluate(script, nil), nil
	case "scroll_to":
		return chromedp.ScrollIntoView(in.Selector, chromedp.ByQuery), nil
	case "wait":
		ms := 1000
		if in.Value != "" {
			if _, err := fmt.Sscanf(in.Value, "%d", &ms); err != nil {
				ms = 1000
			}
		}
		return chromedp.Sleep(time.Duration(ms) * time.Millisecond), nil
	default:
		return nil, fmt.Errorf("unknown interaction type %q", in.Type)
	}
}
