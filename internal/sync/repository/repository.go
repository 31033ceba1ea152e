package repository

import (
	"context"
	"time"

	"fulqrun/backend/internal/sync/domain"
)

// DeviceRepository persists registered sync devices.
type DeviceRepository interface {
	GetByID(ctx context.Context, orgID, id string) (*domain.Device, error)
	GetByFingerprint(ctx context.Context, orgID, userID, fingerprint string) (*domain.Device, error)
	Create(ctx context.Context, d *domain.Device) error
	UpdateCursor(ctx context.Context, orgID, id string, cursor int64, at time.Time) error
}

// ChangelogRepository is the org changelog devices pull from.
type ChangelogRepository interface {
	// RecordChange appends one entry. Payload is marshalled to JSON.
	RecordChange(ctx context.Context, orgID, entityType, entityID, op string, payload any) error
	// ListSince returns entries with seq > cursor, oldest first.
	ListSince(ctx context.Context, orgID string, cursor int64, limit int32) ([]*domain.LogEntry, error)
}
