// Package service owns the export job lifecycle: request, status, download,
// and the worker-side generation.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"fulqrun/backend/internal/export/domain"
	"fulqrun/backend/internal/export/repository"
)

// Sentinel errors; handler maps them to HTTP status codes.
var (
	ErrNotFound = errors.New("export job not found")
	ErrNotReady = errors.New("export job is not done yet")
	ErrFailed   = errors.New("export job failed")
)

// Service handles the API side of export jobs.
type Service struct {
	repo repository.Repository
}

func New(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// Create queues an export job; the worker picks it up from the pending state.
func (s *Service) Create(ctx context.Context, orgID, userID string, kind domain.Kind, format string) (*domain.ExportJob, error) {
	j := &domain.ExportJob{
		ID:          uuid.New().String(),
		OrgID:       orgID,
		RequestedBy: userID,
		Kind:        kind,
		Format:      format,
		Status:      domain.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *Service) Get(ctx context.Context, orgID, id string) (*domain.ExportJob, error) {
	j, err := s.repo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, ErrNotFound
	}
	return j, nil
}

func (s *Service) List(ctx context.Context, orgID string, limit, offset int32) ([]*domain.ExportJob, error) {
	return s.repo.ListByOrg(ctx, orgID, limit, offset)
}

// Download returns a finished job's payload. Pending and running jobs yield
// ErrNotReady; failed jobs yield ErrFailed.
func (s *Service) Download(ctx context.Context, orgID, id string) (*domain.ExportJob, error) {
	j, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	switch j.Status {
	case domain.StatusDone:
		return j, nil
	case domain.StatusFailed:
		return nil, ErrFailed
	default:
		return nil, ErrNotReady
	}
}
