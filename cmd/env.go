package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/JodusNodus/apartment-eagle/internal/classify"
	"github.com/JodusNodus/apartment-eagle/internal/config"
	"github.com/JodusNodus/apartment-eagle/internal/detail"
	"github.com/JodusNodus/apartment-eagle/internal/evaluate"
	"github.com/JodusNodus/apartment-eagle/internal/extract"
	"github.com/JodusNodus/apartment-eagle/internal/notify"
	"github.com/JodusNodus/apartment-eagle/internal/pipeline"
	"github.com/JodusNodus/apartment-eagle/internal/scrape"
	"github.com/JodusNodus/apartment-eagle/internal/store"
	"github.com/JodusNodus/apartment-eagle/pkg/anthropic"
)

// cycleEnv holds everything the run/watch/serve commands need.
type cycleEnv struct {
	Store   store.Store
	Browser *scrape.Browser
	Runner  *pipeline.Runner
}

// Close releases the browser and the store.
func (e *cycleEnv) Close() {
	if e.Browser != nil {
		e.Browser.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initCycle validates config, opens the store and wires the cycle. Callers
// should defer env.Close().
func initCycle(ctx context.Context) (*cycleEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := initStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	browser := scrape.NewBrowser(cfg.Scrape)
	transport := scrape.NewTransport(scrape.NewHTTPFetcher(cfg.Scrape), browser)
	ai := anthropic.NewClient(cfg.Anthropic.Key)

	cycle := pipeline.New(cfg.Agencies, pipeline.Deps{
		Scraper:    scrape.NewAgencyScraper(transport),
		Extractor:  extract.New(cfg.Extract.ExcludePaths),
		Tracker:    store.NewTracker(st),
		Classifier: classify.New(ai, cfg.Anthropic.ClassifyModel, cfg.Classify),
		Details:    detail.New(transport, cfg.Classify.MinConfidence, millis(cfg.Detail.RequestDelayMs)),
		Evaluator:  evaluate.New(ai, cfg.Anthropic.EvaluateModel, cfg.Criteria, cfg.Detail, cfg.Classify.MaxAttempts),
		Notifier:   buildNotifier(cfg),
		Release:    browser.Close,
	})

	runner := pipeline.NewRunner(cycle,
		time.Duration(cfg.Cycle.TimeoutMinutes)*time.Minute,
		time.Duration(cfg.Cycle.GraceSecs)*time.Second,
	)

	zap.L().Info("cycle ready",
		zap.Int("agencies", len(cfg.Agencies)),
		zap.String("store", cfg.Store.Driver),
		zap.String("classify_model", cfg.Anthropic.ClassifyModel),
		zap.String("evaluate_model", cfg.Anthropic.EvaluateModel),
	)
	return &cycleEnv{Store: st, Browser: browser, Runner: runner}, nil
}

func initStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	switch sc.Driver {
	case "", "json":
		path := sc.Path
		if path == "" {
			path = "data/scraped_urls.json"
		}
		return store.NewJSON(path), nil
	case "sqlite":
		dsn := sc.DatabaseURL
		if dsn == "" {
			dsn = "data/eagle.db"
		}
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, eris.Wrap(err, "store: create sqlite dir")
		}
		return store.NewSQLite(dsn)
	case "postgres":
		if sc.DatabaseURL == "" {
			return nil, eris.New("store: postgres driver requires EAGLE_STORE_DATABASE_URL")
		}
		return store.NewPostgres(ctx, sc.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", sc.Driver)
	}
}

func buildNotifier(c *config.Config) notify.Notifier {
	var multi notify.Multi
	if c.Email.Enabled {
		multi = append(multi, notify.NewEmail(c.Email))
	}
	if c.Webhook.URL != "" {
		multi = append(multi, notify.NewWebhook(c.Webhook))
	}
	if len(multi) == 0 {
		zap.L().Warn("no notifier configured, matches will only be logged")
		return nil
	}
	return multi
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
