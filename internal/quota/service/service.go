package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"fulqrun/backend/internal/quota/domain"
	"fulqrun/backend/internal/quota/repository"
)

var ErrNotFound = errors.New("quota plan not found")

// Service owns quota plan CRUD and attainment math.
type Service struct {
	repo repository.Repository
}

func New(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// PlanInput carries the writable quota plan fields.
type PlanInput struct {
	UserID      string
	PeriodStart time.Time
	PeriodEnd   time.Time
	TargetCents int64
}

func (s *Service) Create(ctx context.Context, orgID string, in PlanInput) (*domain.QuotaPlan, error) {
	now := time.Now().UTC()
	q := &domain.QuotaPlan{
		ID:          uuid.New().String(),
		OrgID:       orgID,
		UserID:      in.UserID,
		PeriodStart: in.PeriodStart,
		PeriodEnd:   in.PeriodEnd,
		TargetCents: in.TargetCents,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *Service) Get(ctx context.Context, orgID, id string) (*domain.QuotaPlan, error) {
	q, err := s.repo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, ErrNotFound
	}
	return q, nil
}

func (s *Service) List(ctx context.Context, orgID string, userID *string, limit, offset int32) ([]*domain.QuotaPlan, error) {
	return s.repo.ListByOrg(ctx, orgID, userID, limit, offset)
}

func (s *Service) Update(ctx context.Context, orgID, id string, in PlanInput) (*domain.QuotaPlan, error) {
	q, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	q.UserID = in.UserID
	q.PeriodStart = in.PeriodStart
	q.PeriodEnd = in.PeriodEnd
	q.TargetCents = in.TargetCents
	if err := q.Validate(); err != nil {
		return nil, err
	}
	q.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *Service) Delete(ctx context.Context, orgID, id string) error {
	if _, err := s.Get(ctx, orgID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, orgID, id)
}

// Attainment measures won deal value inside the plan's period against the target.
func (s *Service) Attainment(ctx context.Context, orgID, id string) (*domain.Attainment, error) {
	q, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	won, err := s.repo.WonValueCents(ctx, orgID, q.UserID, q.PeriodStart, q.PeriodEnd)
	if err != nil {
		return nil, err
	}
	return &domain.Attainment{
		PlanID:      q.ID,
		UserID:      q.UserID,
		TargetCents: q.TargetCents,
		WonCents:    won,
		Ratio:       float64(won) / float64(q.TargetCents),
	}, nil
}
