package repository

import (
	"context"

	"fulqrun/backend/internal/opportunity/domain"
)

// Filter narrows opportunity listings. Nil fields match everything.
type Filter struct {
	Stage   *domain.Stage
	Status  *domain.Status
	OwnerID *string
}

// Repository defines persistence for opportunities.
type Repository interface {
	GetByID(ctx context.Context, orgID, id string) (*domain.Opportunity, error)
	ListByOrg(ctx context.Context, orgID string, f Filter, limit, offset int32) ([]*domain.Opportunity, error)
	Create(ctx context.Context, o *domain.Opportunity) error
	Update(ctx context.Context, o *domain.Opportunity) error
	Delete(ctx context.Context, orgID, id string) error
	UpdateScore(ctx context.Context, orgID, id string, score int, band string) error
}
