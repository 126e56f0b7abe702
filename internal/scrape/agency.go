package scrape

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JodusNodus/apartment-eagle/internal/model"
)

// PageSource fetches a URL under the transport policy. *Transport
// implements it.
type PageSource interface {
	Fetch(ctx context.Context, url string, requiresRendering bool) (*Page, error)
}

// AgencyScraper turns agency configs into cleaned listing pages.
type AgencyScraper struct {
	src PageSource
	now func() time.Time
}

// NewAgencyScraper creates an AgencyScraper.
func NewAgencyScraper(src PageSource) *AgencyScraper {
	return &AgencyScraper{src: src, now: time.Now}
}

// ScrapeAgency fetches and cleans one agency's listing page. Any failure is
// logged and reported as a Listing with empty HTML.
func (s *AgencyScraper) ScrapeAgency(ctx context.Context, agency model.Agency) model.Listing {
	listing := model.Listing{Agency: agency.Name, URL: agency.URL}
	log := zap.L().With(zap.String("agency", agency.Name), zap.String("url", agency.URL))

	page, err := s.src.Fetch(ctx, agency.URL, agency.RequiresRendering)
	if err != nil {
		log.Error("scrape: listing fetch failed", zap.Error(err))
		listing.Timestamp = s.now()
		return listing
	}

	cleaned, err := Clean(page.HTML, agency.Selector)
	if err != nil {
		log.Error("scrape: listing clean failed",
			zap.String("selector", agency.Selector),
			zap.Error(err),
		)
		listing.Timestamp = s.now()
		return listing
	}

	listing.HTML = cleaned
	listing.Timestamp = s.now()
	log.Info("scrape: listing fetched",
		zap.String("source", page.Source),
		zap.Int("chars", len(cleaned)),
	)
	return listing
}

// ScrapeAll scrapes every agency concurrently and returns one Listing per
// agency in input order. A slow or failing agency does not hold back the
// others beyond its own fetch timeout.
func (s *AgencyScraper) ScrapeAll(ctx context.Context, agencies []model.Agency) []model.Listing {
	out := make([]model.Listing, len(agencies))

	var g errgroup.Group
	for i, a := range agencies {
		g.Go(func() error {
			out[i] = s.ScrapeAgency(ctx, a)
			return nil
		})
	}
	_ = g.Wait()

	return out
}
