// Package scrape fetches agency listing pages and property detail pages over
// plain HTTP or a shared headless browser.
package scrape

import (
	"context"
	"fmt"
)

// Page is the raw HTML of one fetched URL.
type Page struct {
	URL        string
	HTML       string
	StatusCode int
	Source     string // "http" or "browser"
}

// Fetcher retrieves a single URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
	Name() string
}

// BlockedError reports a response that looks like an anti-bot wall or a
// JavaScript-only shell rather than real content.
type BlockedError struct {
	URL  string
	Type BlockType
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("scrape: %s blocked (%s)", e.URL, e.Type)
}
