package scrape

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Transport applies the fetch policy shared by listing and detail pages:
// rendering agencies always go through the browser; everyone else uses
// plain HTTP and falls back to the browser once when HTTP returns a
// JavaScript shell.
type Transport struct {
	http    Fetcher
	browser Fetcher
}

// NewTransport creates a Transport. browser may be nil, which disables
// rendering and the fallback.
func NewTransport(plain, browser Fetcher) *Transport {
	return &Transport{http: plain, browser: browser}
}

// Fetch retrieves url using the policy above.
func (t *Transport) Fetch(ctx context.Context, url string, requiresRendering bool) (*Page, error) {
	if requiresRendering && t.browser != nil {
		return t.browser.Fetch(ctx, url)
	}

	page, err := t.http.Fetch(ctx, url)
	if err == nil {
		return page, nil
	}

	var blocked *BlockedError
	if t.browser != nil && errors.As(err, &blocked) && blocked.Type == BlockJSShell {
		zap.L().Info("scrape: javascript shell, retrying in browser", zap.String("url", url))
		return t.browser.Fetch(ctx, url)
	}
	return nil, err
}
