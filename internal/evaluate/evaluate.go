// Package evaluate asks the oracle whether a fetched property page meets the
// user's eligibility criteria.
package evaluate

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

// Reasons recorded when the oracle cannot produce a verdict.
const (
	ReasonParseFailed = "Failed to parse AI evaluation response"
	reasonCallFailed  = "Error during evaluation: "
)

type verdict struct {
	Matches   bool   `json:"matches"`
	Reasoning string `json:"reasoning"`
}

// Evaluator judges property pages against a criteria text.
type Evaluator struct {
	client      anthropic.Client
	model       string
	criteria    string
	cfg         config.DetailConfig
	maxAttempts int
}

// New creates an Evaluator. criteria is passed to the oracle verbatim.
func New(client anthropic.Client, modelID, criteria string, cfg config.DetailConfig, maxAttempts int) *Evaluator {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	return &Evaluator{
		client:      client,
		model:       modelID,
		criteria:    criteria,
		cfg:         cfg,
		maxAttempts: maxAttempts,
	}
}

// Evaluate returns a verdict for d. It never fails: oracle or parse errors
// produce a non-match whose reasoning says what went wrong.
func (e *Evaluator) Evaluate(ctx context.Context, d model.PropertyDetail) model.PropertyEvaluation {
	log := zap.L().With(zap.String("agency", d.Agency), zap.String("url", d.URL))

	flat := Flatten(d.HTML, e.cfg.MaxHTMLChars)
	temp := 0.1
	text, err := oracle.Call(ctx, e.client, anthropic.MessageRequest{
		Model:       e.model,
		MaxTokens:   e.cfg.MaxTokens,
		System:      anthropic.BuildCachedSystemBlocks(systemPrompt),
		Messages:    []anthropic.Message{{Role: "user", Content: buildUserPrompt(e.criteria, d, flat)}},
		Temperature: &temp,
	}, "evaluate", e.maxAttempts)
	if err != nil {
		log.Error("evaluate: oracle call failed", zap.Error(err))
		return model.PropertyEvaluation{Property: d, Reasoning: reasonCallFailed + err.Error()}
	}

	v, err := oracle.DecodeObject[verdict](text)
	if err != nil {
		log.Warn("evaluate: unparsable verdict", zap.Error(err))
		return model.PropertyEvaluation{Property: d, Reasoning: ReasonParseFailed}
	}

	log.Info("evaluate: verdict", zap.Bool("matches", v.Matches))
	return model.PropertyEvaluation{Property: d, Matches: v.Matches, Reasoning: v.Reasoning}
}

// EvaluateAll evaluates details sequentially with a pause between calls and
// returns one evaluation per detail evaluated. It stops early if ctx ends.
func (e *Evaluator) EvaluateAll(ctx context.Context, details []model.PropertyDetail) []model.PropertyEvaluation {
	pace := rate.NewLimiter(rate.Inf, 1)
	if e.cfg.EvaluateDelayMs > 0 {
		pace = rate.NewLimiter(rate.Every(time.Duration(e.cfg.EvaluateDelayMs)*time.Millisecond), 1)
	}

	out := make([]model.PropertyEvaluation, 0, len(details))
	for _, d := range details {
		if err := pace.Wait(ctx); err != nil {
			zap.L().Warn("evaluate: stopped early", zap.Error(err))
			break
		}
		out = append(out, e.Evaluate(ctx, d))
	}
	return out
}

// Matches filters evaluations down to the matching ones.
func Matches(evals []model.PropertyEvaluation) []model.PropertyEvaluation {
	var out []model.PropertyEvaluation
	for _, ev := range evals {
		if ev.Matches {
			out = append(out, ev)
		}
	}
	return out
}
