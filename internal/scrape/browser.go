package scrape

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/JodusNodus/apartment-eagle/internal/config"
)

// settleDelay gives client-side rendering time to populate the DOM after
// the document is ready.
const settleDelay = 2 * time.Second

// Browser is a shared headless Chrome instance. It starts on the first
// Fetch and stays up until Close, so every rendered fetch in a cycle reuses
// one process. Close is safe to call more than once, and a Fetch after Close
// starts a fresh instance.
type Browser struct {
	cfg config.ScrapeConfig

	mu          sync.Mutex
	browserCtx  context.Context
	cancelAlloc context.CancelFunc
	cancelCtx   context.CancelFunc
}

// NewBrowser returns an unstarted Browser.
func NewBrowser(cfg config.ScrapeConfig) *Browser {
	return &Browser{cfg: cfg}
}

func (b *Browser) Name() string { return "browser" }

// Started reports whether a Chrome process is currently held.
func (b *Browser) Started() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.browserCtx != nil
}

func (b *Browser) start() (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browserCtx != nil {
		return b.browserCtx, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(1920, 1080),
	)
	if b.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.cfg.UserAgent))
	}
	if b.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(b.cfg.ChromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	// Suppress chromedp log noise.
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Run with no actions launches the process.
	if err := chromedp.Run(ctx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, eris.Wrap(err, "scrape: browser: start")
	}

	zap.L().Info("scrape: browser started")
	b.browserCtx, b.cancelAlloc, b.cancelCtx = ctx, cancelAlloc, cancelCtx
	return ctx, nil
}

// Fetch renders targetURL in a new tab and returns the resulting DOM.
func (b *Browser) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	browserCtx, err := b.start()
	if err != nil {
		return nil, err
	}

	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()

	timeout := time.Duration(b.cfg.RenderTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 50 * time.Second
	}
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)
	defer cancelTimeout()

	// Propagate cancellation of the caller's context into the tab.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var html string
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: browser: render %s", targetURL)
	}

	return &Page{URL: targetURL, HTML: html, StatusCode: 200, Source: b.Name()}, nil
}

// Close shuts the Chrome process down if one is running.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browserCtx == nil {
		return
	}
	b.cancelCtx()
	b.cancelAlloc()
	b.browserCtx, b.cancelAlloc, b.cancelCtx = nil, nil, nil
	zap.L().Info("scrape: browser closed")
}
