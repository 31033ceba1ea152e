package repository

import (
	"context"

	contactdomain "fulqrun/backend/internal/contact/domain"
	"fulqrun/backend/internal/lead/domain"
	oppdomain "fulqrun/backend/internal/opportunity/domain"
)

// Filter narrows lead listings. Nil fields match everything.
type Filter struct {
	Status  *domain.Status
	OwnerID *string
}

// Repository defines persistence for leads.
type Repository interface {
	GetByID(ctx context.Context, orgID, id string) (*domain.Lead, error)
	ListByOrg(ctx context.Context, orgID string, f Filter, limit, offset int32) ([]*domain.Lead, error)
	Create(ctx context.Context, l *domain.Lead) error
	Update(ctx context.Context, l *domain.Lead) error
	Delete(ctx context.Context, orgID, id string) error
	// Convert marks the lead converted and creates the contact and
	// opportunity in the same transaction.
	Convert(ctx context.Context, l *domain.Lead, c *contactdomain.Contact, o *oppdomain.Opportunity) error
}
