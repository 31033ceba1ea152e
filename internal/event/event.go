// Package event defines domain events and the publishers that carry them
// (Kafka for the connector worker, OTel logs for observability).
package event

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// Event types published by the API server.
const (
	TypeLeadCreated       = "lead.created"
	TypeLeadConverted     = "lead.converted"
	TypeOpportunityStage  = "opportunity.stage_changed"
	TypeOpportunityClosed = "opportunity.closed"
	TypeExportCompleted   = "export.completed"
	TypeHTTPRequest       = "http_request"
)

// Event is a single domain or telemetry event (org-scoped, optional user/session).
type Event struct {
	OrgID     string          `json:"org_id"`
	UserID    string          `json:"user_id,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Publisher emits events. Callers use it best-effort: log and ignore errors.
type Publisher interface {
	// Publish sends a single event. Implementations may block briefly; use
	// PublishAsync from request handlers.
	Publish(ctx context.Context, e *Event) error
	// Close releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}

// publishTimeout is the max time allowed for a single async publish.
const publishTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after HTTP shutdown before closing
// publishers, so in-flight async publishes have time to complete. Must be >= publishTimeout.
const ShutdownDrainDuration = publishTimeout

// PublishAsync runs Publish in a goroutine with a short timeout so the caller is not blocked.
// Use from request handlers for fire-and-forget, best-effort events; errors are logged.
//
// p and e may be nil; PublishAsync returns immediately without starting a goroutine.
// The goroutine uses context.Background() with publishTimeout so request cancellation
// does not abort an in-flight publish.
func PublishAsync(p Publisher, e *Event) {
	if p == nil || e == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := p.Publish(ctx, e); err != nil {
			log.Printf("event: async publish failed: %v", err)
		}
	}()
}

// Fanout publishes every event to each of its publishers. Errors from one
// publisher do not stop the others; the first error is returned.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e *Event) error {
	var first error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f Fanout) Close() error {
	var first error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
