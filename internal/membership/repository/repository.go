package repository

import (
	"context"

	"fulqrun/backend/internal/membership/domain"
)

// Repository defines persistence for org memberships.
type Repository interface {
	GetByUserAndOrg(ctx context.Context, userID, orgID string) (*domain.Membership, error)
	ListByOrg(ctx context.Context, orgID string, limit, offset int32) ([]*domain.Membership, error)
	Create(ctx context.Context, m *domain.Membership) error
	UpdateRole(ctx context.Context, userID, orgID string, role domain.Role) error
	Delete(ctx context.Context, userID, orgID string) error
}
