package repository

import (
	"context"
	"time"

	"fulqrun/backend/internal/quota/domain"
)

// Repository persists quota plans and measures won value against them.
type Repository interface {
	GetByID(ctx context.Context, orgID, id string) (*domain.QuotaPlan, error)
	ListByOrg(ctx context.Context, orgID string, userID *string, limit, offset int32) ([]*domain.QuotaPlan, error)
	Create(ctx context.Context, q *domain.QuotaPlan) error
	Update(ctx context.Context, q *domain.QuotaPlan) error
	Delete(ctx context.Context, orgID, id string) error

	// WonValueCents sums the value of a user's won opportunities closed
	// inside [from, to).
	WonValueCents(ctx context.Context, orgID, userID string, from, to time.Time) (int64, error)
}
