// Package pipeline runs watch cycles: scrape every agency, detect new
// listing URLs, classify and evaluate them, notify on matches and record what
// was seen.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/JodusNodus/apartment-eagle/internal/diff"
	"github.com/JodusNodus/apartment-eagle/internal/model"
	"github.com/JodusNodus/apartment-eagle/internal/notify"
)

// ListingScraper fetches the listing page of every agency. Failed agencies
// come back with empty HTML.
type ListingScraper interface {
	ScrapeAll(ctx context.Context, agencies []model.Agency) []model.Listing
}

// URLExtractor pulls candidate property URLs out of listing HTML.
type URLExtractor interface {
	URLs(body, baseURL string) []string
}

// SeenTracker loads and extends the seen-URL history without failing.
type SeenTracker interface {
	LoadAll(ctx context.Context) model.SeenURLs
	MergeAndSave(ctx context.Context, urls model.SeenURLs) bool
}

// URLClassifier labels pooled candidates.
type URLClassifier interface {
	Classify(ctx context.Context, candidates []model.CandidateURL) []model.URLClassification
}

// DetailFetcher fetches one agency's qualifying detail pages.
type DetailFetcher interface {
	FetchAll(ctx context.Context, agency model.Agency, labels []model.URLClassification) []model.PropertyDetail
}

// PropertyEvaluator judges fetched detail pages.
type PropertyEvaluator interface {
	EvaluateAll(ctx context.Context, details []model.PropertyDetail) []model.PropertyEvaluation
}

// Deps bundles the collaborators of a Cycle.
type Deps struct {
	Scraper    ListingScraper
	Extractor  URLExtractor
	Tracker    SeenTracker
	Classifier URLClassifier
	Details    DetailFetcher
	Evaluator  PropertyEvaluator
	Notifier   notify.Notifier

	// Release frees shared resources such as the rendering browser. It runs
	// at the end of every cycle.
	Release func()
}

// Cycle runs one scrape, diff, classify, evaluate, notify and persist pass
// over a fixed agency list.
type Cycle struct {
	agencies []model.Agency
	set      model.AgencySet
	deps     Deps
	now      func() time.Time
}

// New creates a Cycle over agencies.
func New(agencies []model.Agency, deps Deps) *Cycle {
	return &Cycle{
		agencies: agencies,
		set:      model.NewAgencySet(agencies),
		deps:     deps,
		now:      time.Now,
	}
}

// Run executes one cycle. Per-agency and per-URL failures are logged and
// isolated; the returned report is failed only when ctx ended during the
// cycle.
func (c *Cycle) Run(ctx context.Context) *model.CycleReport {
	report := &model.CycleReport{
		ID:        uuid.NewString(),
		Status:    model.CycleStatusRunning,
		StartedAt: c.now().UTC(),
		NewURLs:   make(map[string]int),
	}
	log := zap.L().With(zap.String("cycle_id", report.ID))
	log.Info("pipeline: cycle starting", zap.Int("agencies", len(c.agencies)))

	if c.deps.Release != nil {
		defer c.deps.Release()
	}
	defer func() {
		report.FinishedAt = c.now().UTC()
		if err := ctx.Err(); err != nil {
			report.Status = model.CycleStatusFailed
			report.Error = err.Error()
		}
		log.Info("pipeline: cycle finished",
			zap.String("status", string(report.Status)),
			zap.Int("new_urls", report.TotalNewURLs()),
			zap.Int("matches", report.Matches),
			zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
		)
	}()

	var seen model.SeenURLs
	c.phase(log, "load_state", func() {
		seen = c.deps.Tracker.LoadAll(ctx)
	})

	var listings []model.Listing
	c.phase(log, "scrape_all", func() {
		listings = c.deps.Scraper.ScrapeAll(ctx, c.agencies)
	})

	var (
		current model.SeenURLs
		diffs   []diff.Result
	)
	c.phase(log, "extract_and_diff", func() {
		current, diffs = c.extractAndDiff(log, listings, seen, report)
	})

	candidates := Pool(diffs, c.set)
	if len(candidates) == 0 {
		log.Info("pipeline: no new urls")
		c.persist(ctx, log, current, report)
		report.Status = model.CycleStatusComplete
		return report
	}

	var labels []model.URLClassification
	c.phase(log, "classify", func() {
		labels = c.deps.Classifier.Classify(ctx, candidates)
	})
	report.Classified = len(labels)

	var matches []model.Match
	c.phase(log, "fetch_and_evaluate", func() {
		for _, batch := range GroupByAgency(candidates, labels, c.set) {
			if ctx.Err() != nil {
				break
			}
			m, pages, err := c.processAgency(ctx, batch)
			report.DetailPages += pages
			if err != nil {
				log.Error("pipeline: agency detail processing failed",
					zap.String("agency", batch.Agency.Name),
					zap.Error(err),
				)
				continue
			}
			matches = append(matches, m...)
		}
	})
	report.Matches = len(matches)

	if len(matches) > 0 && c.deps.Notifier != nil {
		c.phase(log, "notify", func() {
			if err := c.deps.Notifier.Notify(ctx, matches); err != nil {
				log.Error("pipeline: notification failed", zap.Error(err))
				return
			}
			report.Notified = true
		})
	}

	c.persist(ctx, log, current, report)
	report.Status = model.CycleStatusComplete
	return report
}

// extractAndDiff extracts URLs from every successful listing and diffs them
// against seen. Failed agencies get no entry in the returned current set so
// their stored history is left alone.
func (c *Cycle) extractAndDiff(log *zap.Logger, listings []model.Listing, seen model.SeenURLs, report *model.CycleReport) (model.SeenURLs, []diff.Result) {
	current := make(model.SeenURLs, len(listings))
	var diffs []diff.Result
	for _, l := range listings {
		if l.Failed() {
			report.AgenciesFailed++
			log.Warn("pipeline: agency scrape failed, keeping stored urls", zap.String("agency", l.Agency))
			continue
		}
		report.AgenciesOK++

		urls := c.deps.Extractor.URLs(l.HTML, c.set[l.Agency].BaseURL())
		current[l.Agency] = urls

		d := diff.Compute(l.Agency, urls, seen.Set(l.Agency))
		report.NewURLs[l.Agency] = len(d.New)
		if d.Changed() {
			log.Info("pipeline: agency changed",
				zap.String("agency", l.Agency),
				zap.Int("urls", len(urls)),
				zap.Int("new", len(d.New)),
				zap.Int("removed", len(d.Removed)),
			)
		}
		if len(d.New) > 0 {
			diffs = append(diffs, d)
		}
	}
	return current, diffs
}

// processAgency fetches and evaluates one agency's detail pages. A panic in
// a collaborator is turned into an error so other agencies still run.
func (c *Cycle) processAgency(ctx context.Context, batch AgencyBatch) (matches []model.Match, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("pipeline: agency %s: panic: %v", batch.Agency.Name, r)
		}
	}()

	details := c.deps.Details.FetchAll(ctx, batch.Agency, batch.Labels)
	if len(details) == 0 {
		return nil, 0, nil
	}
	evals := c.deps.Evaluator.EvaluateAll(ctx, details)
	return ToMatches(batch.Agency, evals), len(details), nil
}

// persist merges the current URL sets into history. Nothing is recorded
// once ctx has ended: new URLs from an interrupted cycle may not have been
// classified or notified, and must be detected again next cycle.
func (c *Cycle) persist(ctx context.Context, log *zap.Logger, current model.SeenURLs, report *model.CycleReport) {
	if err := ctx.Err(); err != nil {
		log.Warn("pipeline: cycle interrupted, not recording urls", zap.Error(err))
		return
	}
	c.phase(log, "persist_state", func() {
		report.Persisted = c.deps.Tracker.MergeAndSave(ctx, current)
	})
}

func (c *Cycle) phase(log *zap.Logger, name string, fn func()) {
	start := time.Now()
	fn()
	log.Debug("pipeline: phase complete",
		zap.String("phase", name),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
}
