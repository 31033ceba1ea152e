package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"fulqrun/backend/internal/event"
)

// NewEventPublisher returns an event.Publisher that sends events as OTel log
// records via the given LoggerProvider. If provider is nil, returns a no-op publisher.
func NewEventPublisher(provider *sdklog.LoggerProvider) event.Publisher {
	if provider == nil {
		return noopPublisher{}
	}
	return &otelPublisher{logger: provider.Logger("fulqrun.events")}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, *event.Event) error { return nil }
func (noopPublisher) Close() error                                { return nil }

type otelPublisher struct {
	logger otellog.Logger
}

// Publish converts the event to an OTel log record and emits it. Best-effort.
func (p *otelPublisher) Publish(ctx context.Context, e *event.Event) error {
	if e == nil {
		return nil
	}
	rec := otellog.Record{}
	if !e.CreatedAt.IsZero() {
		rec.SetTimestamp(e.CreatedAt)
	} else {
		rec.SetTimestamp(time.Now().UTC())
	}
	if len(e.Metadata) > 0 {
		rec.SetBody(otellog.BytesValue(e.Metadata))
	}
	if e.OrgID != "" {
		rec.AddAttributes(otellog.String("org_id", e.OrgID))
	}
	if e.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", e.UserID))
	}
	if e.SessionID != "" {
		rec.AddAttributes(otellog.String("session_id", e.SessionID))
	}
	if e.Type != "" {
		rec.AddAttributes(otellog.String("event_type", e.Type))
	}
	if e.Source != "" {
		rec.AddAttributes(otellog.String("source", e.Source))
	}
	p.logger.Emit(ctx, rec)
	return nil
}

func (p *otelPublisher) Close() error { return nil }
