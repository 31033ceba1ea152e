package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"fulqrun/backend/internal/connector/domain"
	"fulqrun/backend/internal/connector/repository"
)

var ErrNotFound = errors.New("connector not found")

// Service owns connector CRUD.
type Service struct {
	repo repository.Repository
}

func New(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// Input carries the writable connector fields.
type Input struct {
	Kind    domain.Kind
	Name    string
	Config  domain.Config
	Enabled bool
}

func (s *Service) Create(ctx context.Context, orgID string, in Input) (*domain.Connector, error) {
	now := time.Now().UTC()
	c := &domain.Connector{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		Kind:      in.Kind,
		Name:      in.Name,
		Config:    in.Config,
		Enabled:   in.Enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, orgID, id string) (*domain.Connector, error) {
	c, err := s.repo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, orgID string, limit, offset int32) ([]*domain.Connector, error) {
	return s.repo.ListByOrg(ctx, orgID, limit, offset)
}

func (s *Service) Update(ctx context.Context, orgID, id string, in Input) (*domain.Connector, error) {
	c, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	c.Kind = in.Kind
	c.Name = in.Name
	c.Config = in.Config
	c.Enabled = in.Enabled
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, orgID, id string) error {
	if _, err := s.Get(ctx, orgID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, orgID, id)
}
