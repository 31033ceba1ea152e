package repository

import (
	"context"

	"fulqrun/backend/internal/scoring/domain"
)

// AssessmentRepository persists MEDDPICC submissions.
type AssessmentRepository interface {
	Create(ctx context.Context, a *domain.Assessment) error
	GetLatestByOpportunity(ctx context.Context, orgID, opportunityID string) (*domain.Assessment, error)
}

// ConfigRepository persists per-org scoring configuration.
type ConfigRepository interface {
	Get(ctx context.Context, orgID string) (*domain.Config, error)
	Put(ctx context.Context, orgID string, cfg *domain.Config, updatedBy string) error
}
