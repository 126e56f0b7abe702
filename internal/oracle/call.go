package oracle

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/JodusNodus/apartment-eagle/internal/resilience"
	"github.com/JodusNodus/apartment-eagle/pkg/anthropic"
)

// Call sends req with bounded retry on transient failures, logs the token
// cost under phase and returns the response text.
func Call(ctx context.Context, client anthropic.Client, req anthropic.MessageRequest, phase string, maxAttempts int) (string, error) {
	resp, err := resilience.DoVal(ctx, resilience.ForCall(maxAttempts, "anthropic", phase),
		func(ctx context.Context) (*anthropic.MessageResponse, error) {
			return client.CreateMessage(ctx, req)
		})
	if err != nil {
		return "", eris.Wrapf(err, "oracle: %s", phase)
	}
	resp.Usage.LogCost(req.Model, phase)
	return resp.Text(), nil
}
