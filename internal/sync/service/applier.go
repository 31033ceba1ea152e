package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fulqrun/backend/internal/audit"
	contactdomain "fulqrun/backend/internal/contact/domain"
	leaddomain "fulqrun/backend/internal/lead/domain"
	oppdomain "fulqrun/backend/internal/opportunity/domain"
	"fulqrun/backend/internal/sync/domain"
)

// LeadStore is the subset of the lead repository the applier needs.
type LeadStore interface {
	GetByID(ctx context.Context, orgID, id string) (*leaddomain.Lead, error)
	Create(ctx context.Context, l *leaddomain.Lead) error
	Update(ctx context.Context, l *leaddomain.Lead) error
	Delete(ctx context.Context, orgID, id string) error
}

// ContactStore is the subset of the contact repository the applier needs.
type ContactStore interface {
	GetByID(ctx context.Context, orgID, id string) (*contactdomain.Contact, error)
	Create(ctx context.Context, c *contactdomain.Contact) error
	Update(ctx context.Context, c *contactdomain.Contact) error
	Delete(ctx context.Context, orgID, id string) error
}

// OpportunityStore is the subset of the opportunity repository the applier needs.
type OpportunityStore interface {
	GetByID(ctx context.Context, orgID, id string) (*oppdomain.Opportunity, error)
	Create(ctx context.Context, o *oppdomain.Opportunity) error
	Update(ctx context.Context, o *oppdomain.Opportunity) error
	Delete(ctx context.Context, orgID, id string) error
}

// ChangeRecorder appends applied changes to the org changelog.
type ChangeRecorder interface {
	RecordChange(ctx context.Context, orgID, entityType, entityID, op string, payload any) error
}

// Applier turns queued offline changes into entity writes. Conflicts resolve
// last-write-wins on timestamps: a change older than the server row is
// skipped and audited, never applied.
type Applier struct {
	leads     LeadStore
	contacts  ContactStore
	opps      OpportunityStore
	changelog ChangeRecorder
	auditor   audit.AuditLogger
}

func NewApplier(leads LeadStore, contacts ContactStore, opps OpportunityStore, changelog ChangeRecorder, auditor audit.AuditLogger) *Applier {
	return &Applier{leads: leads, contacts: contacts, opps: opps, changelog: changelog, auditor: auditor}
}

// Apply processes one claimed change. A nil return acks the change; skipped
// conflicts and already-deleted targets also return nil since redelivery
// cannot change the outcome.
func (a *Applier) Apply(ctx context.Context, c *domain.QueuedChange) error {
	var (
		applied bool
		err     error
	)
	switch c.EntityType {
	case "lead":
		applied, err = a.applyLead(ctx, c)
	case "contact":
		applied, err = a.applyContact(ctx, c)
	case "opportunity":
		applied, err = a.applyOpportunity(ctx, c)
	default:
		return fmt.Errorf("unknown entity type %q", c.EntityType)
	}
	if err != nil {
		return err
	}
	if applied && a.changelog != nil {
		if recErr := a.changelog.RecordChange(ctx, c.OrgID, c.EntityType, c.EntityID, string(c.Op), c.Payload); recErr != nil {
			return fmt.Errorf("record applied change: %w", recErr)
		}
	}
	return nil
}

// DeadLetter records a change that exhausted its delivery attempts.
func (a *Applier) DeadLetter(ctx context.Context, c *domain.QueuedChange, cause error) {
	if a.auditor == nil {
		return
	}
	meta := fmt.Sprintf(`{"change_id":%q,"device_id":%q,"attempts":%d,"error":%q}`,
		c.ChangeID, c.DeviceID, c.Attempts, cause.Error())
	a.auditor.LogEvent(ctx, c.OrgID, c.UserID, "sync.change_dead", c.EntityType+":"+c.EntityID, meta)
}

func (a *Applier) skipConflict(ctx context.Context, c *domain.QueuedChange, serverUpdated time.Time) {
	if a.auditor == nil {
		return
	}
	meta := fmt.Sprintf(`{"change_id":%q,"occurred_at":%q,"server_updated_at":%q}`,
		c.ChangeID, c.OccurredAt.Format(time.RFC3339), serverUpdated.Format(time.RFC3339))
	a.auditor.LogEvent(ctx, c.OrgID, c.UserID, "sync.conflict_skipped", c.EntityType+":"+c.EntityID, meta)
}

type leadPayload struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Source  string `json:"source"`
	Status  string `json:"status"`
}

func (a *Applier) applyLead(ctx context.Context, c *domain.QueuedChange) (bool, error) {
	existing, err := a.leads.GetByID(ctx, c.OrgID, c.EntityID)
	if err != nil {
		return false, err
	}

	switch c.Op {
	case domain.OpCreate:
		if existing != nil {
			return false, nil // already created, replay
		}
		var p leadPayload
		if err := json.Unmarshal(c.Payload, &p); err != nil {
			return false, fmt.Errorf("decode lead payload: %w", err)
		}
		l := &leaddomain.Lead{
			ID:        c.EntityID,
			OrgID:     c.OrgID,
			OwnerID:   c.UserID,
			Name:      p.Name,
			Company:   p.Company,
			Email:     p.Email,
			Phone:     p.Phone,
			Source:    p.Source,
			Status:    leaddomain.Status(p.Status),
			CreatedAt: c.OccurredAt,
			UpdatedAt: c.OccurredAt,
		}
		if err := l.Validate(); err != nil {
			return false, err
		}
		l.Score = l.ComputeScore()
		if err := a.leads.Create(ctx, l); err != nil {
			return false, err
		}
		return true, nil

	case domain.OpUpdate:
		if existing == nil {
			return false, fmt.Errorf("lead %s not found", c.EntityID)
		}
		if existing.UpdatedAt.After(c.OccurredAt) {
			a.skipConflict(ctx, c, existing.UpdatedAt)
			return false, nil
		}
		if existing.Status.Terminal() {
			a.skipConflict(ctx, c, existing.UpdatedAt)
			return false, nil
		}
		var p leadPayload
		if err := json.Unmarshal(c.Payload, &p); err != nil {
			return false, fmt.Errorf("decode lead payload: %w", err)
		}
		existing.Name = p.Name
		existing.Company = p.Company
		existing.Email = p.Email
		existing.Phone = p.Phone
		existing.Source = p.Source
		if p.Status != "" && p.Status != string(leaddomain.StatusConverted) {
			existing.Status = leaddomain.Status(p.Status)
		}
		if err := existing.Validate(); err != nil {
			return false, err
		}
		existing.Score = existing.ComputeScore()
		existing.UpdatedAt = c.OccurredAt
		if err := a.leads.Update(ctx, existing); err != nil {
			return false, err
		}
		return true, nil

	case domain.OpDelete:
		if existing == nil {
			return false, nil
		}
		if err := a.leads.Delete(ctx, c.OrgID, c.EntityID); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return false, err
		}
		return true, nil
	}
	return false, fmt.Errorf("unknown op %q", c.Op)
}

type contactPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Title   string `json:"title"`
	Company string `json:"company"`
}

func (a *Applier) applyContact(ctx context.Context, c *domain.QueuedChange) (bool, error) {
	existing, err := a.contacts.GetByID(ctx, c.OrgID, c.EntityID)
	if err != nil {
		return false, err
	}

	switch c.Op {
	case domain.OpCreate:
		if existing != nil {
			return false, nil
		}
		var p contactPayload
		if err := json.Unmarshal(c.Payload, &p); err != nil {
			return false, fmt.Errorf("decode contact payload: %w", err)
		}
		ct := &contactdomain.Contact{
			ID:        c.EntityID,
			OrgID:     c.OrgID,
			Name:      p.Name,
			Email:     p.Email,
			Phone:     p.Phone,
			Title:     p.Title,
			Company:   p.Company,
			CreatedAt: c.OccurredAt,
			UpdatedAt: c.OccurredAt,
		}
		if err := ct.Validate(); err != nil {
			return false, err
		}
		if err := a.contacts.Create(ctx, ct); err != nil {
			return false, err
		}
		return true, nil

	case domain.OpUpdate:
		if existing == nil {
			return false, fmt.Errorf("contact %s not found", c.EntityID)
		}
		if existing.UpdatedAt.After(c.OccurredAt) {
			a.skipConflict(ctx, c, existing.UpdatedAt)
			return false, nil
		}
		var p contactPayload
		if err := json.Unmarshal(c.Payload, &p); err != nil {
			return false, fmt.Errorf("decode contact payload: %w", err)
		}
		existing.Name = p.Name
		existing.Email = p.Email
		existing.Phone = p.Phone
		existing.Title = p.Title
		existing.Company = p.Company
		if err := existing.Validate(); err != nil {
			return false, err
		}
		existing.UpdatedAt = c.OccurredAt
		if err := a.contacts.Update(ctx, existing); err != nil {
			return false, err
		}
		return true, nil

	case domain.OpDelete:
		if existing == nil {
			return false, nil
		}
		if err := a.contacts.Delete(ctx, c.OrgID, c.EntityID); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return false, err
		}
		return true, nil
	}
	return false, fmt.Errorf("unknown op %q", c.Op)
}

type opportunityPayload struct {
	Name       string     `json:"name"`
	ContactID  string     `json:"contact_id"`
	ValueCents int64      `json:"value_cents"`
	Currency   string     `json:"currency"`
	Stage      string     `json:"stage"`
	CloseDate  *time.Time `json:"close_date"`
}

func (a *Applier) applyOpportunity(ctx context.Context, c *domain.QueuedChange) (bool, error) {
	existing, err := a.opps.GetByID(ctx, c.OrgID, c.EntityID)
	if err != nil {
		return false, err
	}

	switch c.Op {
	case domain.OpCreate:
		if existing != nil {
			return false, nil
		}
		var p opportunityPayload
		if err := json.Unmarshal(c.Payload, &p); err != nil {
			return false, fmt.Errorf("decode opportunity payload: %w", err)
		}
		o := &oppdomain.Opportunity{
			ID:         c.EntityID,
			OrgID:      c.OrgID,
			OwnerID:    c.UserID,
			ContactID:  p.ContactID,
			Name:       p.Name,
			ValueCents: p.ValueCents,
			Currency:   p.Currency,
			Stage:      oppdomain.Stage(p.Stage),
			CloseDate:  p.CloseDate,
			CreatedAt:  c.OccurredAt,
			UpdatedAt:  c.OccurredAt,
		}
		if err := o.Validate(); err != nil {
			return false, err
		}
		if err := a.opps.Create(ctx, o); err != nil {
			return false, err
		}
		return true, nil

	case domain.OpUpdate:
		if existing == nil {
			return false, fmt.Errorf("opportunity %s not found", c.EntityID)
		}
		if existing.UpdatedAt.After(c.OccurredAt) {
			a.skipConflict(ctx, c, existing.UpdatedAt)
			return false, nil
		}
		if existing.Status != oppdomain.StatusOpen {
			// Closed deals never reopen from an offline edit.
			a.skipConflict(ctx, c, existing.UpdatedAt)
			return false, nil
		}
		var p opportunityPayload
		if err := json.Unmarshal(c.Payload, &p); err != nil {
			return false, fmt.Errorf("decode opportunity payload: %w", err)
		}
		if p.Stage != "" && p.Stage != string(existing.Stage) {
			if !existing.Stage.CanTransition(oppdomain.Stage(p.Stage)) {
				a.skipConflict(ctx, c, existing.UpdatedAt)
				return false, nil
			}
			existing.Stage = oppdomain.Stage(p.Stage)
		}
		existing.Name = p.Name
		existing.ContactID = p.ContactID
		existing.ValueCents = p.ValueCents
		existing.Currency = p.Currency
		existing.CloseDate = p.CloseDate
		if err := existing.Validate(); err != nil {
			return false, err
		}
		existing.UpdatedAt = c.OccurredAt
		if err := a.opps.Update(ctx, existing); err != nil {
			return false, err
		}
		return true, nil

	case domain.OpDelete:
		if existing == nil {
			return false, nil
		}
		if err := a.opps.Delete(ctx, c.OrgID, c.EntityID); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return false, err
		}
		return true, nil
	}
	return false, fmt.Errorf("unknown op %q", c.Op)
}
