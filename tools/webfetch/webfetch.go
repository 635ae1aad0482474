package webfetch

import (
	"context"
	"errors"
	"time"

	"github.com/mohammad-safakhou/webscout/tools/webfetch/chromedp"
	"github.com/mohammad-safakhou/webscout/tools/webfetch/models"
)

const (
	DefaultTimeout  = 15 * time.Second
	MaxCharsDefault = 20000
)

// Fetcher acquires a rendered page and returns its normalized content record.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts models.FetchOptions) (*models.PageResult, error)
}

type FetcherType string

const (
	ChromedpFetcherType FetcherType = "chromedp"
)

// Config mirrors the fetcher section of the application config without
// importing it, so the tool stays usable standalone.
type Config struct {
	Timeout   time.Duration
	MaxChars  int
	UserAgent string
	Headless  bool
}

func NewFetcher(fetcherType FetcherType, cfg Config) (Fetcher, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = MaxCharsDefault
	}

	switch fetcherType {
	case ChromedpFetcherType, "":
		return &chromedp.Fetch{
			Timeout:   cfg.Timeout,
			MaxChars:  cfg.MaxChars,
			UserAgent: cfg.UserAgent,
			Headless:  cfg.Headless,
		}, nil
	default:
		return nil, errors.New("unsupported fetcher type")
	}
}
