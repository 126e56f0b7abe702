// Package classify labels newly seen URLs as property detail pages or not,
// batching requests to the oracle.
package classify

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/JodusNodus/apartment-eagle/internal/config"
	"github.com/JodusNodus/apartment-eagle/internal/model"
	"github.com/JodusNodus/apartment-eagle/internal/oracle"
	"github.com/JodusNodus/apartment-eagle/pkg/anthropic"
)

// Classifier labels pooled candidate URLs.
type Classifier struct {
	client anthropic.Client
	model  string
	cfg    config.ClassifyConfig
	pace   *rate.Limiter
}

// New creates a Classifier. Zero values in cfg fall back to the defaults
// (batches of 50, short circuit below 4 at confidence 8, 1s between
// batches).
func New(client anthropic.Client, modelID string, cfg config.ClassifyConfig) *Classifier {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.ShortCircuitThreshold < 0 {
		cfg.ShortCircuitThreshold = 0
	}
	if cfg.ShortCircuitConfidence <= 0 {
		cfg.ShortCircuitConfidence = 8
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}

	pace := rate.NewLimiter(rate.Inf, 1)
	if cfg.BatchDelayMs > 0 {
		pace = rate.NewLimiter(rate.Every(time.Duration(cfg.BatchDelayMs)*time.Millisecond), 1)
	}
	return &Classifier{client: client, model: modelID, cfg: cfg, pace: pace}
}

// Classify returns at most one classification per candidate. Below the
// short-circuit threshold every candidate is returned as a confident detail
// page without calling the oracle. Otherwise candidates are sent in
// fixed-size batches; a batch whose call or parse fails contributes nothing,
// and its URLs stay unclassified.
func (c *Classifier) Classify(ctx context.Context, candidates []model.CandidateURL) []model.URLClassification {
	if len(candidates) == 0 {
		return nil
	}

	if len(candidates) < c.cfg.ShortCircuitThreshold {
		zap.L().Info("classify: few new urls, skipping oracle",
			zap.Int("urls", len(candidates)),
		)
		out := make([]model.URLClassification, len(candidates))
		for i, cand := range candidates {
			out[i] = model.URLClassification{
				URL:             cand.URL,
				IsListingDetail: true,
				Confidence:      c.cfg.ShortCircuitConfidence,
			}
		}
		return out
	}

	batches := Partition(candidates, c.cfg.BatchSize)
	var out []model.URLClassification
	for i, batch := range batches {
		log := zap.L().With(
			zap.Int("batch", i+1),
			zap.Int("batches", len(batches)),
			zap.Int("urls", len(batch)),
		)

		if err := c.pace.Wait(ctx); err != nil {
			log.Warn("classify: stopped before batch", zap.Error(err))
			break
		}

		labels, err := c.classifyBatch(ctx, batch)
		if err != nil {
			log.Error("classify: batch failed, urls left unclassified", zap.Error(err))
			continue
		}

		details := 0
		for _, l := range labels {
			if l.IsListingDetail {
				details++
			}
		}
		log.Info("classify: batch complete",
			zap.Int("classified", len(labels)),
			zap.Int("detail_pages", details),
		)
		out = append(out, labels...)
	}
	return out
}

func (c *Classifier) classifyBatch(ctx context.Context, batch []model.CandidateURL) ([]model.URLClassification, error) {
	temp := 0.1
	text, err := oracle.Call(ctx, c.client, anthropic.MessageRequest{
		Model:       c.model,
		MaxTokens:   c.cfg.MaxTokens,
		System:      anthropic.BuildCachedSystemBlocks(systemPrompt),
		Messages:    []anthropic.Message{{Role: "user", Content: buildUserPrompt(batch)}},
		Temperature: &temp,
	}, "classify", c.cfg.MaxAttempts)
	if err != nil {
		return nil, err
	}

	labels, err := oracle.DecodeArray[model.URLClassification](text)
	if err != nil {
		return nil, err
	}
	return keepRequested(batch, labels), nil
}

// keepRequested drops labels for URLs that were not in the batch and
// duplicate labels for the same URL, keeping the first.
func keepRequested(batch []model.CandidateURL, labels []model.URLClassification) []model.URLClassification {
	want := make(map[string]bool, len(batch))
	for _, c := range batch {
		want[c.URL] = true
	}
	out := labels[:0]
	for _, l := range labels {
		if !want[l.URL] {
			continue
		}
		want[l.URL] = false
		out = append(out, l)
	}
	return out
}

// Partition splits items into consecutive chunks of at most size.
func Partition[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
