package repository

import (
	"context"

	"fulqrun/backend/internal/dashboard/domain"
)

// Repository persists dashboards. Layouts are user-owned within an org.
type Repository interface {
	GetByID(ctx context.Context, orgID, id string) (*domain.Dashboard, error)
	ListByUser(ctx context.Context, orgID, userID string, limit, offset int32) ([]*domain.Dashboard, error)
	Create(ctx context.Context, d *domain.Dashboard) error
	Update(ctx context.Context, d *domain.Dashboard) error
	Delete(ctx context.Context, orgID, id string) error
}
