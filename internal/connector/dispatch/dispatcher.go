// Package dispatch delivers domain events to org-configured connectors.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fulqrun/backend/internal/connector/domain"
	"fulqrun/backend/internal/event"
)

// Dispatcher posts events to webhook endpoints. Deliveries are best-effort
// with a per-call timeout; callers log failures and move on.
type Dispatcher struct {
	client *http.Client
}

func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{client: &http.Client{Timeout: timeout}}
}

// Dispatch delivers one event to one connector.
func (d *Dispatcher) Dispatch(ctx context.Context, c *domain.Connector, e *event.Event) error {
	var body []byte
	var err error
	switch c.Kind {
	case domain.KindSlack:
		body, err = json.Marshal(map[string]string{"text": slackText(e)})
	case domain.KindWebhook:
		body, err = json.Marshal(e)
	default:
		return fmt.Errorf("unknown connector kind %q", c.Kind)
	}
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Config.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Config.Secret != "" {
		req.Header.Set("X-Webhook-Secret", c.Config.Secret)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

// slackText renders a short human-readable line for Slack.
func slackText(e *event.Event) string {
	switch e.Type {
	case event.TypeLeadCreated:
		return "New lead captured."
	case event.TypeLeadConverted:
		return "A lead was converted to an opportunity."
	case event.TypeOpportunityStage:
		return "An opportunity moved to a new pipeline stage."
	case event.TypeOpportunityClosed:
		return "An opportunity was closed."
	case event.TypeExportCompleted:
		return "A data export finished and is ready to download."
	}
	return fmt.Sprintf("Event: %s", e.Type)
}
