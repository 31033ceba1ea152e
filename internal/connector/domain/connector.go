package domain

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Kind selects the dispatch format.
type Kind string

const (
	// KindSlack posts Slack incoming-webhook payloads ({"text": ...}).
	KindSlack Kind = "slack"
	// KindWebhook posts the raw event JSON to the configured URL.
	KindWebhook Kind = "webhook"
)

func (k Kind) Valid() bool {
	return k == KindSlack || k == KindWebhook
}

// Config is the connector's dispatch settings. Secret, when set, is sent as
// the X-Webhook-Secret header so receivers can authenticate deliveries.
type Config struct {
	WebhookURL string   `json:"webhook_url"`
	Secret     string   `json:"secret,omitempty"`
	EventTypes []string `json:"event_types,omitempty"` // empty = all events
}

// Connector is an org's outbound integration endpoint.
type Connector struct {
	ID        string
	OrgID     string
	Kind      Kind
	Name      string
	Config    Config
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Connector) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("name is required")
	}
	if !c.Kind.Valid() {
		return errors.New("kind must be slack or webhook")
	}
	u, err := url.Parse(c.Config.WebhookURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("config.webhook_url must be an http(s) URL")
	}
	return nil
}

// Wants reports whether the connector subscribes to the event type.
func (c *Connector) Wants(eventType string) bool {
	if len(c.Config.EventTypes) == 0 {
		return true
	}
	for _, t := range c.Config.EventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}
