package repository

import (
	"context"

	"fulqrun/backend/internal/audit/domain"
)

// Filter narrows ListByOrg results. Nil fields match everything.
type Filter struct {
	UserID   *string
	Action   *string
	Resource *string
}

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	GetByID(ctx context.Context, id string) (*domain.AuditLog, error)
	ListByOrg(ctx context.Context, orgID string, f Filter, limit, offset int32) ([]*domain.AuditLog, error)
}
