package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	contactdomain "fulqrun/backend/internal/contact/domain"
	"fulqrun/backend/internal/event"
	"fulqrun/backend/internal/lead/domain"
	"fulqrun/backend/internal/lead/repository"
	oppdomain "fulqrun/backend/internal/opportunity/domain"
)

// Sentinel errors; handler maps them to HTTP status codes.
var (
	ErrNotFound = errors.New("lead not found")
	ErrTerminal = errors.New("lead is converted or lost")
)

// ChangeRecorder appends entity mutations to the sync changelog.
type ChangeRecorder interface {
	RecordChange(ctx context.Context, orgID, entityType, entityID, op string, payload any) error
}

// Service owns lead business rules: scoring, status moves, and conversion.
type Service struct {
	repo      repository.Repository
	events    event.Publisher
	changelog ChangeRecorder
}

func New(repo repository.Repository, events event.Publisher, changelog ChangeRecorder) *Service {
	return &Service{repo: repo, events: events, changelog: changelog}
}

// CreateInput carries the caller-supplied fields for a new lead.
type CreateInput struct {
	Name    string
	Company string
	Email   string
	Phone   string
	Source  string
}

func (s *Service) Create(ctx context.Context, orgID, ownerID string, in CreateInput) (*domain.Lead, error) {
	now := time.Now().UTC()
	l := &domain.Lead{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		OwnerID:   ownerID,
		Name:      in.Name,
		Company:   in.Company,
		Email:     in.Email,
		Phone:     in.Phone,
		Source:    in.Source,
		Status:    domain.StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	l.Score = l.ComputeScore()
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	s.record(ctx, l, "create")
	s.emit(l, event.TypeLeadCreated, map[string]string{"source": l.Source})
	return l, nil
}

func (s *Service) Get(ctx context.Context, orgID, id string) (*domain.Lead, error) {
	l, err := s.repo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrNotFound
	}
	return l, nil
}

func (s *Service) List(ctx context.Context, orgID string, f repository.Filter, limit, offset int32) ([]*domain.Lead, error) {
	return s.repo.ListByOrg(ctx, orgID, f, limit, offset)
}

// UpdateInput carries the mutable fields. Nil pointers leave the field unchanged.
type UpdateInput struct {
	Name    *string
	Company *string
	Email   *string
	Phone   *string
	Source  *string
	Status  *domain.Status
	OwnerID *string
}

func (s *Service) Update(ctx context.Context, orgID, id string, in UpdateInput) (*domain.Lead, error) {
	l, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if l.Status.Terminal() {
		return nil, ErrTerminal
	}
	if in.Name != nil {
		l.Name = *in.Name
	}
	if in.Company != nil {
		l.Company = *in.Company
	}
	if in.Email != nil {
		l.Email = *in.Email
	}
	if in.Phone != nil {
		l.Phone = *in.Phone
	}
	if in.Source != nil {
		l.Source = *in.Source
	}
	if in.OwnerID != nil {
		l.OwnerID = *in.OwnerID
	}
	if in.Status != nil {
		// Conversion goes through Convert, not a status write.
		if *in.Status == domain.StatusConverted {
			return nil, errors.New("use convert to mark a lead converted")
		}
		l.Status = *in.Status
	}
	l.UpdatedAt = time.Now().UTC()
	if err := l.Validate(); err != nil {
		return nil, err
	}
	l.Score = l.ComputeScore()
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	s.record(ctx, l, "update")
	return l, nil
}

func (s *Service) Delete(ctx context.Context, orgID, id string) error {
	l, err := s.Get(ctx, orgID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, orgID, id); err != nil {
		return err
	}
	s.record(ctx, l, "delete")
	return nil
}

// ConvertResult is the records produced by a conversion.
type ConvertResult struct {
	Lead        *domain.Lead
	Contact     *contactdomain.Contact
	Opportunity *oppdomain.Opportunity
}

// ConvertInput seeds the opportunity created alongside the contact.
type ConvertInput struct {
	OpportunityName string
	ValueCents      int64
	Currency        string
}

// Convert turns a live lead into a contact plus an opportunity. The three
// writes happen in one transaction.
func (s *Service) Convert(ctx context.Context, orgID, id string, in ConvertInput) (*ConvertResult, error) {
	l, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if l.Status.Terminal() {
		return nil, ErrTerminal
	}
	now := time.Now().UTC()
	l.Status = domain.StatusConverted
	l.Score = l.ComputeScore()
	l.UpdatedAt = now

	c := &contactdomain.Contact{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		Name:      l.Name,
		Email:     l.Email,
		Phone:     l.Phone,
		Company:   l.Company,
		LeadID:    l.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	oppName := in.OpportunityName
	if oppName == "" {
		oppName = l.Company
	}
	if oppName == "" {
		oppName = l.Name
	}
	o := &oppdomain.Opportunity{
		ID:         uuid.New().String(),
		OrgID:      orgID,
		OwnerID:    l.OwnerID,
		ContactID:  c.ID,
		Name:       oppName,
		ValueCents: in.ValueCents,
		Currency:   in.Currency,
		Stage:      oppdomain.StageProspecting,
		Status:     oppdomain.StatusOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Convert(ctx, l, c, o); err != nil {
		return nil, err
	}
	s.record(ctx, l, "update")
	if s.changelog != nil {
		if err := s.changelog.RecordChange(ctx, orgID, "contact", c.ID, "create", c); err != nil {
			log.Printf("lead: record contact change: %v", err)
		}
		if err := s.changelog.RecordChange(ctx, orgID, "opportunity", o.ID, "create", o); err != nil {
			log.Printf("lead: record opportunity change: %v", err)
		}
	}
	s.emit(l, event.TypeLeadConverted, map[string]string{"contact_id": c.ID, "opportunity_id": o.ID})
	return &ConvertResult{Lead: l, Contact: c, Opportunity: o}, nil
}

func (s *Service) record(ctx context.Context, l *domain.Lead, op string) {
	if s.changelog == nil {
		return
	}
	if err := s.changelog.RecordChange(ctx, l.OrgID, "lead", l.ID, op, l); err != nil {
		log.Printf("lead: record change: %v", err)
	}
}

func (s *Service) emit(l *domain.Lead, typ string, meta map[string]string) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return
	}
	event.PublishAsync(s.events, &event.Event{
		OrgID:     l.OrgID,
		UserID:    l.OwnerID,
		Type:      typ,
		Source:    "lead",
		Metadata:  raw,
		CreatedAt: time.Now().UTC(),
	})
}
