package repository

import (
	"context"

	"fulqrun/backend/internal/connector/domain"
)

// Repository persists connectors.
type Repository interface {
	GetByID(ctx context.Context, orgID, id string) (*domain.Connector, error)
	ListByOrg(ctx context.Context, orgID string, limit, offset int32) ([]*domain.Connector, error)
	// ListEnabledByOrg returns every enabled connector; the dispatch worker
	// fans events out to these.
	ListEnabledByOrg(ctx context.Context, orgID string) ([]*domain.Connector, error)
	Create(ctx context.Context, c *domain.Connector) error
	Update(ctx context.Context, c *domain.Connector) error
	Delete(ctx context.Context, orgID, id string) error
}
