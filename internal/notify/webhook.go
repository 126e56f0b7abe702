package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/JodusNodus/apartment-eagle/internal/config"
	"github.com/JodusNodus/apartment-eagle/internal/model"
)

// WebhookPayload is the JSON body posted to the webhook.
type WebhookPayload struct {
	Type      string        `json:"type"`
	Message   string        `json:"message"`
	Agencies  int           `json:"agencies"`
	Matches   []WebhookItem `json:"matches"`
	Timestamp time.Time     `json:"timestamp"`
}

// WebhookItem is one matching property in a WebhookPayload.
type WebhookItem struct {
	Agency    string `json:"agency"`
	URL       string `json:"url"`
	Reasoning string `json:"reasoning"`
}

// WebhookNotifier posts the report as JSON.
type WebhookNotifier struct {
	url    string
	client *http.Client
	now    func() time.Time
}

// NewWebhook creates a WebhookNotifier. A zero timeout defaults to 10s.
func NewWebhook(cfg config.WebhookConfig) *WebhookNotifier {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

// Name implements Notifier.
func (w *WebhookNotifier) Name() string { return "webhook" }

// Notify implements Notifier.
func (w *WebhookNotifier) Notify(ctx context.Context, matches []model.Match) error {
	if w.url == "" || len(matches) == 0 {
		return nil
	}

	msg := Compose(matches, w.now())
	payload := WebhookPayload{
		Type:      "new_matches",
		Message:   msg.Subject,
		Agencies:  len(groupByAgency(matches)),
		Timestamp: w.now().UTC(),
	}
	for _, m := range matches {
		payload.Matches = append(payload.Matches, WebhookItem{
			Agency:    m.Agency,
			URL:       m.URL,
			Reasoning: m.Evaluation.Reasoning,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "notify: webhook: marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "notify: webhook: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "notify: webhook: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("notify: webhook: returned status %d", resp.StatusCode)
	}
	return nil
}
