package scrape

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html/charset"

	"github.com/JodusNodus/apartment-eagle/internal/config"
	"github.com/JodusNodus/apartment-eagle/internal/resilience"
)

// maxBodyBytes caps how much of a page is read.
const maxBodyBytes = 4 << 20

// HTTPFetcher fetches pages with net/http, decodes them to UTF-8 and rejects
// blocked responses.
type HTTPFetcher struct {
	client      *http.Client
	userAgent   string
	maxAttempts int
}

// NewHTTPFetcher creates an HTTPFetcher from the scrape config.
func NewHTTPFetcher(cfg config.ScrapeConfig) *HTTPFetcher {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConnsPerHost: 4,
			},
		},
		userAgent:   cfg.UserAgent,
		maxAttempts: cfg.MaxAttempts,
	}
}

func (f *HTTPFetcher) Name() string { return "http" }

// Fetch retrieves targetURL, retrying transient failures (timeouts, 429,
// 5xx). Blocks are not retried.
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	return resilience.DoVal(ctx, resilience.ForCall(f.maxAttempts, "http", "fetch"),
		func(ctx context.Context) (*Page, error) {
			return f.fetchOnce(ctx, targetURL)
		})
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, targetURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: http: create request")
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "nl-BE,nl;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: http: fetch %s", targetURL)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: http: read %s", targetURL)
	}

	if blocked, bt := DetectBlock(resp, raw); blocked {
		return nil, &BlockedError{URL: targetURL, Type: bt}
	}

	if resp.StatusCode >= 400 {
		return nil, resilience.FromStatus(
			eris.Errorf("scrape: http: %s returned status %d", targetURL, resp.StatusCode),
			resp.StatusCode,
		)
	}

	body, err := decodeBody(raw, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: http: decode %s", targetURL)
	}

	return &Page{
		URL:        targetURL,
		HTML:       body,
		StatusCode: resp.StatusCode,
		Source:     f.Name(),
	}, nil
}

// decodeBody converts raw to UTF-8 using the content type and any meta
// charset in the document. An empty body decodes to "".
func decodeBody(raw []byte, contentType string) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	reader, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return "", err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
