package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"fulqrun/backend/internal/event"
	"fulqrun/backend/internal/opportunity/domain"
	"fulqrun/backend/internal/opportunity/repository"
)

// Sentinel errors; handler maps them to HTTP status codes.
var (
	ErrNotFound          = errors.New("opportunity not found")
	ErrAlreadyClosed     = errors.New("opportunity is closed")
	ErrInvalidTransition = errors.New("stage transition not allowed")
	ErrInvalidOutcome    = errors.New("close outcome must be won or lost")
)

// ChangeRecorder appends entity mutations to the sync changelog so offline
// clients can pull them.
type ChangeRecorder interface {
	RecordChange(ctx context.Context, orgID, entityType, entityID, op string, payload any) error
}

// Service owns opportunity business rules: stage transitions and closing.
type Service struct {
	repo      repository.Repository
	events    event.Publisher
	changelog ChangeRecorder
}

func New(repo repository.Repository, events event.Publisher, changelog ChangeRecorder) *Service {
	return &Service{repo: repo, events: events, changelog: changelog}
}

// CreateInput carries the caller-supplied fields for a new opportunity.
type CreateInput struct {
	Name       string
	ContactID  string
	ValueCents int64
	Currency   string
	Stage      domain.Stage
	CloseDate  *time.Time
}

func (s *Service) Create(ctx context.Context, orgID, ownerID string, in CreateInput) (*domain.Opportunity, error) {
	now := time.Now().UTC()
	o := &domain.Opportunity{
		ID:         uuid.New().String(),
		OrgID:      orgID,
		OwnerID:    ownerID,
		ContactID:  in.ContactID,
		Name:       in.Name,
		ValueCents: in.ValueCents,
		Currency:   in.Currency,
		Stage:      in.Stage,
		Status:     domain.StatusOpen,
		CloseDate:  in.CloseDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	s.record(ctx, o, "create")
	return o, nil
}

func (s *Service) Get(ctx context.Context, orgID, id string) (*domain.Opportunity, error) {
	o, err := s.repo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, orgID string, f repository.Filter, limit, offset int32) ([]*domain.Opportunity, error) {
	return s.repo.ListByOrg(ctx, orgID, f, limit, offset)
}

// UpdateInput carries the mutable fields. Nil pointers leave the field unchanged.
type UpdateInput struct {
	Name       *string
	ContactID  *string
	OwnerID    *string
	ValueCents *int64
	Currency   *string
	CloseDate  *time.Time
}

func (s *Service) Update(ctx context.Context, orgID, id string, in UpdateInput) (*domain.Opportunity, error) {
	o, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.StatusOpen {
		return nil, ErrAlreadyClosed
	}
	if in.Name != nil {
		o.Name = *in.Name
	}
	if in.ContactID != nil {
		o.ContactID = *in.ContactID
	}
	if in.OwnerID != nil {
		o.OwnerID = *in.OwnerID
	}
	if in.ValueCents != nil {
		o.ValueCents = *in.ValueCents
	}
	if in.Currency != nil {
		o.Currency = *in.Currency
	}
	if in.CloseDate != nil {
		o.CloseDate = in.CloseDate
	}
	o.UpdatedAt = time.Now().UTC()
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	s.record(ctx, o, "update")
	return o, nil
}

// ChangeStage moves an open opportunity to another PEAK stage. Forward moves
// may skip stages; backward moves are limited to one step.
func (s *Service) ChangeStage(ctx context.Context, orgID, id string, next domain.Stage) (*domain.Opportunity, error) {
	o, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.StatusOpen {
		return nil, ErrAlreadyClosed
	}
	if !o.Stage.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Stage, next)
	}
	prev := o.Stage
	o.Stage = next
	o.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	s.record(ctx, o, "update")
	s.emit(o, event.TypeOpportunityStage, map[string]string{"from": string(prev), "to": string(next)})
	return o, nil
}

// Close settles an open opportunity as won or lost. Allowed from any stage.
func (s *Service) Close(ctx context.Context, orgID, id string, outcome domain.Status) (*domain.Opportunity, error) {
	if outcome != domain.StatusWon && outcome != domain.StatusLost {
		return nil, ErrInvalidOutcome
	}
	o, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.StatusOpen {
		return nil, ErrAlreadyClosed
	}
	now := time.Now().UTC()
	o.Status = outcome
	o.ClosedAt = &now
	o.UpdatedAt = now
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	s.record(ctx, o, "update")
	s.emit(o, event.TypeOpportunityClosed, map[string]string{"outcome": string(outcome)})
	return o, nil
}

func (s *Service) Delete(ctx context.Context, orgID, id string) error {
	o, err := s.Get(ctx, orgID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, orgID, id); err != nil {
		return err
	}
	s.record(ctx, o, "delete")
	return nil
}

func (s *Service) record(ctx context.Context, o *domain.Opportunity, op string) {
	if s.changelog == nil {
		return
	}
	if err := s.changelog.RecordChange(ctx, o.OrgID, "opportunity", o.ID, op, o); err != nil {
		log.Printf("opportunity: record change: %v", err)
	}
}

func (s *Service) emit(o *domain.Opportunity, typ string, meta map[string]string) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return
	}
	event.PublishAsync(s.events, &event.Event{
		OrgID:     o.OrgID,
		UserID:    o.OwnerID,
		Type:      typ,
		Source:    "opportunity",
		Metadata:  raw,
		CreatedAt: time.Now().UTC(),
	})
}
