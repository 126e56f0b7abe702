// Package detail fetches the property pages the classifier considered worth
// a closer look.
package detail

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/JodusNodus/apartment-eagle/internal/model"
	"github.com/JodusNodus/apartment-eagle/internal/scrape"
)

// Select keeps the classifications that clear the detail-fetch threshold.
func Select(labels []model.URLClassification, minConfidence int) []model.URLClassification {
	var out []model.URLClassification
	for _, l := range labels {
		if l.WorthFetching(minConfidence) {
			out = append(out, l)
		}
	}
	return out
}

// Fetcher downloads detail pages one at a time per agency, pausing between
// requests so a single agency's server is not hammered.
type Fetcher struct {
	src           scrape.PageSource
	minConfidence int
	delay         time.Duration
	now           func() time.Time
}

// New creates a Fetcher. delay is the pause between successive requests.
func New(src scrape.PageSource, minConfidence int, delay time.Duration) *Fetcher {
	return &Fetcher{src: src, minConfidence: minConfidence, delay: delay, now: time.Now}
}

// FetchAll fetches every qualifying URL for agency using the agency's
// transport policy. Failed or empty pages are logged and left out.
func (f *Fetcher) FetchAll(ctx context.Context, agency model.Agency, labels []model.URLClassification) []model.PropertyDetail {
	log := zap.L().With(zap.String("agency", agency.Name))

	targets := Select(labels, f.minConfidence)
	if len(targets) == 0 {
		log.Info("detail: no high-confidence detail pages")
		return nil
	}
	log.Info("detail: fetching detail pages", zap.Int("urls", len(targets)))

	pace := rate.NewLimiter(rate.Inf, 1)
	if f.delay > 0 {
		pace = rate.NewLimiter(rate.Every(f.delay), 1)
	}

	var out []model.PropertyDetail
	for _, t := range targets {
		if err := pace.Wait(ctx); err != nil {
			log.Warn("detail: stopped early", zap.Error(err))
			break
		}

		page, err := f.src.Fetch(ctx, t.URL, agency.RequiresRendering)
		if err != nil {
			log.Error("detail: fetch failed", zap.String("url", t.URL), zap.Error(err))
			continue
		}
		if page.HTML == "" {
			log.Warn("detail: empty page", zap.String("url", t.URL))
			continue
		}
		out = append(out, model.PropertyDetail{
			URL:       t.URL,
			Agency:    agency.Name,
			HTML:      page.HTML,
			Timestamp: f.now(),
		})
	}

	log.Info("detail: fetched detail pages",
		zap.Int("fetched", len(out)),
		zap.Int("attempted", len(targets)),
	)
	return out
}
