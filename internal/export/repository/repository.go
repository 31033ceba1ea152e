package repository

import (
	"context"

	"fulqrun/backend/internal/export/domain"
)

// Repository persists export jobs. ClaimNext is the worker's entry point.
type Repository interface {
	Create(ctx context.Context, j *domain.ExportJob) error
	GetByID(ctx context.Context, orgID, id string) (*domain.ExportJob, error)
	ListByOrg(ctx context.Context, orgID string, limit, offset int32) ([]*domain.ExportJob, error)

	// ClaimNext atomically moves the oldest pending job to running and
	// returns it. Returns (nil, nil) when no pending jobs exist.
	ClaimNext(ctx context.Context) (*domain.ExportJob, error)
	// Complete stores the payload and marks the job done.
	Complete(ctx context.Context, id string, payload []byte) error
	// Fail records the error and marks the job failed.
	Fail(ctx context.Context, id, errMsg string) error
}
