package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	contactdomain "fulqrun/backend/internal/contact/domain"
	"fulqrun/backend/internal/lead/domain"
	"fulqrun/backend/internal/lead/repository"
	oppdomain "fulqrun/backend/internal/opportunity/domain"
)

type memLeadRepo struct {
	mu        sync.Mutex
	m         map[string]*domain.Lead
	converted []*oppdomain.Opportunity
	contacts  []*contactdomain.Contact
}

func newMemLeadRepo() *memLeadRepo { return &memLeadRepo{m: map[string]*domain.Lead{}} }

func (r *memLeadRepo) GetByID(ctx context.Context, orgID, id string) (*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.m[id]
	if l == nil || l.OrgID != orgID {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *memLeadRepo) ListByOrg(ctx context.Context, orgID string, f repository.Filter, limit, offset int32) ([]*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Lead
	for _, l := range r.m {
		if l.OrgID == orgID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memLeadRepo) Create(ctx context.Context, l *domain.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *l
	r.m[l.ID] = &cp
	return nil
}

func (r *memLeadRepo) Update(ctx context.Context, l *domain.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *l
	r.m[l.ID] = &cp
	return nil
}

func (r *memLeadRepo) Delete(ctx context.Context, orgID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, id)
	return nil
}

func (r *memLeadRepo) Convert(ctx context.Context, l *domain.Lead, c *contactdomain.Contact, o *oppdomain.Opportunity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.m[l.ID]
	if stored == nil || stored.Status.Terminal() {
		return sql.ErrNoRows
	}
	cp := *l
	r.m[l.ID] = &cp
	r.contacts = append(r.contacts, c)
	r.converted = append(r.converted, o)
	return nil
}

func newTestService() (*Service, *memLeadRepo) {
	repo := newMemLeadRepo()
	return New(repo, nil, nil), repo
}

func TestCreate_ScoresLead(t *testing.T) {
	svc, _ := newTestService()
	l, err := svc.Create(context.Background(), "org-1", "u-1", CreateInput{
		Name: "Jordan Vance", Company: "Acme", Email: "jv@acme.co", Source: "referral",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.Score != 75 {
		t.Errorf("Score = %d, want 75", l.Score)
	}
	if l.Status != domain.StatusNew {
		t.Errorf("Status = %q, want %q", l.Status, domain.StatusNew)
	}
}

func TestConvert(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	l, err := svc.Create(ctx, "org-1", "u-1", CreateInput{Name: "Jordan Vance", Company: "Acme"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := svc.Convert(ctx, "org-1", l.ID, ConvertInput{ValueCents: 250000})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if res.Lead.Status != domain.StatusConverted {
		t.Errorf("lead status = %q, want %q", res.Lead.Status, domain.StatusConverted)
	}
	if res.Contact.LeadID != l.ID {
		t.Errorf("contact lead_id = %q, want %q", res.Contact.LeadID, l.ID)
	}
	if res.Opportunity.Name != "Acme" || res.Opportunity.ContactID != res.Contact.ID {
		t.Errorf("opportunity not linked: %+v", res.Opportunity)
	}
	if len(repo.contacts) != 1 || len(repo.converted) != 1 {
		t.Fatalf("convert wrote %d contacts, %d opportunities", len(repo.contacts), len(repo.converted))
	}

	// Converted leads are terminal.
	if _, err := svc.Convert(ctx, "org-1", l.ID, ConvertInput{}); !errors.Is(err, ErrTerminal) {
		t.Fatalf("re-Convert err = %v, want ErrTerminal", err)
	}
	if _, err := svc.Update(ctx, "org-1", l.ID, UpdateInput{}); !errors.Is(err, ErrTerminal) {
		t.Fatalf("Update after convert err = %v, want ErrTerminal", err)
	}
}

func TestUpdate_RejectsConvertedStatus(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	l, err := svc.Create(ctx, "org-1", "u-1", CreateInput{Name: "X"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	converted := domain.StatusConverted
	if _, err := svc.Update(ctx, "org-1", l.ID, UpdateInput{Status: &converted}); err == nil {
		t.Fatal("Update accepted converted status")
	}
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Get(context.Background(), "org-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get err = %v, want ErrNotFound", err)
	}
}
