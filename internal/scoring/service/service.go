package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	oppdomain "fulqrun/backend/internal/opportunity/domain"
	"fulqrun/backend/internal/scoring/domain"
	"fulqrun/backend/internal/scoring/engine"
	"fulqrun/backend/internal/scoring/repository"
)

var (
	ErrOpportunityNotFound = errors.New("opportunity not found")
	ErrNoAssessment        = errors.New("opportunity has no assessment")
)

// OpportunityRepo is the slice of the opportunity repository the scorer needs.
type OpportunityRepo interface {
	GetByID(ctx context.Context, orgID, id string) (*oppdomain.Opportunity, error)
	UpdateScore(ctx context.Context, orgID, id string, score int, band string) error
}

// Service scores MEDDPICC submissions and manages org scoring config.
type Service struct {
	assessments repository.AssessmentRepository
	configs     repository.ConfigRepository
	opps        OpportunityRepo
}

func New(assessments repository.AssessmentRepository, configs repository.ConfigRepository, opps OpportunityRepo) *Service {
	return &Service{assessments: assessments, configs: configs, opps: opps}
}

// ConfigFor returns the org's scoring config, falling back to the defaults.
func (s *Service) ConfigFor(ctx context.Context, orgID string) (*domain.Config, error) {
	cfg, err := s.configs.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return domain.DefaultConfig(), nil
	}
	return cfg, nil
}

// PutConfig validates and stores an org's custom scoring config.
func (s *Service) PutConfig(ctx context.Context, orgID string, cfg *domain.Config, updatedBy string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.configs.Put(ctx, orgID, cfg, updatedBy)
}

// Submit scores the answers, stores the assessment, and stamps the result
// onto the opportunity.
func (s *Service) Submit(ctx context.Context, orgID, opportunityID, userID string, answers domain.Answers) (*domain.Assessment, error) {
	opp, err := s.opps.GetByID(ctx, orgID, opportunityID)
	if err != nil {
		return nil, err
	}
	if opp == nil {
		return nil, ErrOpportunityNotFound
	}
	cfg, err := s.ConfigFor(ctx, orgID)
	if err != nil {
		return nil, err
	}
	res := engine.Score(answers, cfg)
	a := &domain.Assessment{
		ID:            uuid.New().String(),
		OrgID:         orgID,
		OpportunityID: opportunityID,
		Answers:       answers,
		Breakdown:     res.Breakdown,
		Score:         res.Score,
		Band:          res.Band,
		AssessedBy:    userID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.assessments.Create(ctx, a); err != nil {
		return nil, err
	}
	if err := s.opps.UpdateScore(ctx, orgID, opportunityID, res.Score, string(res.Band)); err != nil {
		// Assessment is stored; the stamped score catches up on the next submit.
		log.Printf("scoring: stamp opportunity score: %v", err)
	}
	return a, nil
}

// Latest returns the opportunity's newest assessment.
func (s *Service) Latest(ctx context.Context, orgID, opportunityID string) (*domain.Assessment, error) {
	opp, err := s.opps.GetByID(ctx, orgID, opportunityID)
	if err != nil {
		return nil, err
	}
	if opp == nil {
		return nil, ErrOpportunityNotFound
	}
	a, err := s.assessments.GetLatestByOpportunity(ctx, orgID, opportunityID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNoAssessment
	}
	return a, nil
}
