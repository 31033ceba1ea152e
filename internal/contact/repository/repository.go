package repository

import (
	"context"

	"fulqrun/backend/internal/contact/domain"
)

// Repository defines persistence for contacts.
type Repository interface {
	GetByID(ctx context.Context, orgID, id string) (*domain.Contact, error)
	ListByOrg(ctx context.Context, orgID, query string, limit, offset int32) ([]*domain.Contact, error)
	Create(ctx context.Context, c *domain.Contact) error
	Update(ctx context.Context, c *domain.Contact) error
	Delete(ctx context.Context, orgID, id string) error
}
