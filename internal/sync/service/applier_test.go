package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	contactdomain "fulqrun/backend/internal/contact/domain"
	leaddomain "fulqrun/backend/internal/lead/domain"
	oppdomain "fulqrun/backend/internal/opportunity/domain"
	"fulqrun/backend/internal/sync/domain"
)

type memLeadStore struct {
	mu    sync.Mutex
	leads map[string]*leaddomain.Lead
}

func newMemLeadStore() *memLeadStore {
	return &memLeadStore{leads: make(map[string]*leaddomain.Lead)}
}

func (m *memLeadStore) GetByID(_ context.Context, orgID, id string) (*leaddomain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok || l.OrgID != orgID {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (m *memLeadStore) Create(_ context.Context, l *leaddomain.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.leads[l.ID] = &cp
	return nil
}

func (m *memLeadStore) Update(_ context.Context, l *leaddomain.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[l.ID]; !ok {
		return errors.New("no such lead")
	}
	cp := *l
	m.leads[l.ID] = &cp
	return nil
}

func (m *memLeadStore) Delete(_ context.Context, _, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.leads, id)
	return nil
}

type memContactStore struct {
	mu       sync.Mutex
	contacts map[string]*contactdomain.Contact
}

func newMemContactStore() *memContactStore {
	return &memContactStore{contacts: make(map[string]*contactdomain.Contact)}
}

func (m *memContactStore) GetByID(_ context.Context, orgID, id string) (*contactdomain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok || c.OrgID != orgID {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *memContactStore) Create(_ context.Context, c *contactdomain.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.contacts[c.ID] = &cp
	return nil
}

func (m *memContactStore) Update(_ context.Context, c *contactdomain.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.contacts[c.ID] = &cp
	return nil
}

func (m *memContactStore) Delete(_ context.Context, _, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.contacts, id)
	return nil
}

type memOppStore struct {
	mu   sync.Mutex
	opps map[string]*oppdomain.Opportunity
}

func newMemOppStore() *memOppStore {
	return &memOppStore{opps: make(map[string]*oppdomain.Opportunity)}
}

func (m *memOppStore) GetByID(_ context.Context, orgID, id string) (*oppdomain.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.opps[id]
	if !ok || o.OrgID != orgID {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *memOppStore) Create(_ context.Context, o *oppdomain.Opportunity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.opps[o.ID] = &cp
	return nil
}

func (m *memOppStore) Update(_ context.Context, o *oppdomain.Opportunity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.opps[o.ID] = &cp
	return nil
}

func (m *memOppStore) Delete(_ context.Context, _, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.opps, id)
	return nil
}

type memAuditor struct {
	mu     sync.Mutex
	events []string
}

func (m *memAuditor) LogEvent(_ context.Context, _, _, action, resource, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, action+" "+resource)
}

func (m *memAuditor) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func newTestApplier() (*Applier, *memLeadStore, *memOppStore, *memChangelog, *memAuditor) {
	leads := newMemLeadStore()
	opps := newMemOppStore()
	cl := &memChangelog{}
	aud := &memAuditor{}
	return NewApplier(leads, newMemContactStore(), opps, cl, aud), leads, opps, cl, aud
}

func queuedChange(entityType, entityID string, op domain.Op, payload any, occurred time.Time) *domain.QueuedChange {
	raw, _ := json.Marshal(payload)
	return &domain.QueuedChange{
		Change: domain.Change{
			ChangeID:   "chg-" + entityID,
			OrgID:      "org-1",
			DeviceID:   "dev-1",
			UserID:     "user-1",
			EntityType: entityType,
			EntityID:   entityID,
			Op:         op,
			Payload:    raw,
			ClientSeq:  1,
			OccurredAt: occurred,
		},
		Attempts: 1,
		Status:   domain.StatusPending,
	}
}

func TestApplyLeadCreate(t *testing.T) {
	a, leads, _, cl, _ := newTestApplier()

	c := queuedChange("lead", "l1", domain.OpCreate,
		map[string]string{"name": "Dr. Reyes", "email": "reyes@clinic.example", "source": "referral"},
		time.Now().UTC())
	if err := a.Apply(context.Background(), c); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	l, _ := leads.GetByID(context.Background(), "org-1", "l1")
	if l == nil {
		t.Fatal("lead not created")
	}
	if l.OwnerID != "user-1" {
		t.Errorf("OwnerID = %q, want %q", l.OwnerID, "user-1")
	}
	if l.Score != 55 { // email 25 + referral 30
		t.Errorf("Score = %d, want 55", l.Score)
	}
	if len(cl.entries) != 1 {
		t.Errorf("changelog has %d entries, want 1", len(cl.entries))
	}

	// Replayed create is a no-op and not re-logged.
	if err := a.Apply(context.Background(), c); err != nil {
		t.Fatalf("replay Apply() error = %v", err)
	}
	if len(cl.entries) != 1 {
		t.Errorf("changelog has %d entries after replay, want 1", len(cl.entries))
	}
}

func TestApplyLeadUpdateLastWriteWins(t *testing.T) {
	a, leads, _, cl, aud := newTestApplier()

	now := time.Now().UTC()
	_ = leads.Create(context.Background(), &leaddomain.Lead{
		ID: "l1", OrgID: "org-1", Name: "Old Name", Status: leaddomain.StatusNew, UpdatedAt: now,
	})

	// Offline edit older than the server row is skipped.
	stale := queuedChange("lead", "l1", domain.OpUpdate,
		map[string]string{"name": "Stale Name", "status": "contacted"}, now.Add(-time.Hour))
	if err := a.Apply(context.Background(), stale); err != nil {
		t.Fatalf("Apply() stale error = %v", err)
	}
	l, _ := leads.GetByID(context.Background(), "org-1", "l1")
	if l.Name != "Old Name" {
		t.Errorf("Name = %q, stale change should not apply", l.Name)
	}
	if aud.count() != 1 {
		t.Errorf("audit events = %d, want 1 conflict", aud.count())
	}
	if len(cl.entries) != 0 {
		t.Errorf("changelog has %d entries, skipped change must not be logged", len(cl.entries))
	}

	// A newer edit applies.
	fresh := queuedChange("lead", "l1", domain.OpUpdate,
		map[string]string{"name": "New Name", "status": "contacted"}, now.Add(time.Hour))
	if err := a.Apply(context.Background(), fresh); err != nil {
		t.Fatalf("Apply() fresh error = %v", err)
	}
	l, _ = leads.GetByID(context.Background(), "org-1", "l1")
	if l.Name != "New Name" || l.Status != leaddomain.StatusContacted {
		t.Errorf("lead = %q/%q, fresh change should apply", l.Name, l.Status)
	}
}

func TestApplyLeadUpdateSkipsTerminal(t *testing.T) {
	a, leads, _, _, aud := newTestApplier()

	now := time.Now().UTC()
	_ = leads.Create(context.Background(), &leaddomain.Lead{
		ID: "l1", OrgID: "org-1", Name: "Converted", Status: leaddomain.StatusConverted, UpdatedAt: now.Add(-time.Hour),
	})

	c := queuedChange("lead", "l1", domain.OpUpdate, map[string]string{"name": "Rename"}, now)
	if err := a.Apply(context.Background(), c); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	l, _ := leads.GetByID(context.Background(), "org-1", "l1")
	if l.Name != "Converted" {
		t.Errorf("Name = %q, terminal lead must not change", l.Name)
	}
	if aud.count() != 1 {
		t.Errorf("audit events = %d, want 1", aud.count())
	}
}

func TestApplyOpportunityClosedSkipped(t *testing.T) {
	a, _, opps, _, aud := newTestApplier()

	now := time.Now().UTC()
	_ = opps.Create(context.Background(), &oppdomain.Opportunity{
		ID: "o1", OrgID: "org-1", Name: "Won Deal", Stage: oppdomain.StageKeyDecision,
		Status: oppdomain.StatusWon, Currency: "USD", UpdatedAt: now.Add(-time.Hour),
	})

	c := queuedChange("opportunity", "o1", domain.OpUpdate,
		map[string]any{"name": "Reopened", "currency": "USD", "stage": "engaging"}, now)
	if err := a.Apply(context.Background(), c); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	o, _ := opps.GetByID(context.Background(), "org-1", "o1")
	if o.Name != "Won Deal" {
		t.Errorf("Name = %q, closed deal must not change", o.Name)
	}
	if aud.count() != 1 {
		t.Errorf("audit events = %d, want 1", aud.count())
	}
}

func TestApplyDeleteIdempotent(t *testing.T) {
	a, leads, _, cl, _ := newTestApplier()

	_ = leads.Create(context.Background(), &leaddomain.Lead{
		ID: "l1", OrgID: "org-1", Name: "Gone", Status: leaddomain.StatusNew,
	})

	c := queuedChange("lead", "l1", domain.OpDelete, nil, time.Now().UTC())
	if err := a.Apply(context.Background(), c); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if l, _ := leads.GetByID(context.Background(), "org-1", "l1"); l != nil {
		t.Error("lead still present after delete")
	}
	if len(cl.entries) != 1 {
		t.Errorf("changelog has %d entries, want 1", len(cl.entries))
	}

	// Redelivered delete acks cleanly without a second log entry.
	if err := a.Apply(context.Background(), c); err != nil {
		t.Fatalf("replay Apply() error = %v", err)
	}
	if len(cl.entries) != 1 {
		t.Errorf("changelog has %d entries after replay, want 1", len(cl.entries))
	}
}

func TestApplyUnknownEntity(t *testing.T) {
	a, _, _, _, _ := newTestApplier()
	c := queuedChange("quota", "q1", domain.OpCreate, nil, time.Now().UTC())
	if err := a.Apply(context.Background(), c); err == nil {
		t.Error("Apply() with unknown entity type should fail")
	}
}

func TestDeadLetterAudited(t *testing.T) {
	a, _, _, _, aud := newTestApplier()
	c := queuedChange("lead", "l1", domain.OpUpdate, nil, time.Now().UTC())
	c.Attempts = 3
	a.DeadLetter(context.Background(), c, errors.New("lead l1 not found"))
	if aud.count() != 1 {
		t.Fatalf("audit events = %d, want 1", aud.count())
	}
}
