package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	oppdomain "fulqrun/backend/internal/opportunity/domain"
	"fulqrun/backend/internal/scoring/domain"
)

type memAssessments struct {
	list []*domain.Assessment
}

func (r *memAssessments) Create(ctx context.Context, a *domain.Assessment) error {
	r.list = append(r.list, a)
	return nil
}

func (r *memAssessments) GetLatestByOpportunity(ctx context.Context, orgID, opportunityID string) (*domain.Assessment, error) {
	var latest *domain.Assessment
	for _, a := range r.list {
		if a.OrgID == orgID && a.OpportunityID == opportunityID {
			if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
				latest = a
			}
		}
	}
	return latest, nil
}

type memConfigs struct {
	m map[string]*domain.Config
}

func (r *memConfigs) Get(ctx context.Context, orgID string) (*domain.Config, error) {
	return r.m[orgID], nil
}

func (r *memConfigs) Put(ctx context.Context, orgID string, cfg *domain.Config, updatedBy string) error {
	r.m[orgID] = cfg
	return nil
}

type memOpps struct {
	m     map[string]*oppdomain.Opportunity
	score int
	band  string
}

func (r *memOpps) GetByID(ctx context.Context, orgID, id string) (*oppdomain.Opportunity, error) {
	o := r.m[id]
	if o == nil || o.OrgID != orgID {
		return nil, nil
	}
	return o, nil
}

func (r *memOpps) UpdateScore(ctx context.Context, orgID, id string, score int, band string) error {
	r.score = score
	r.band = band
	return nil
}

func newTestScoring() (*Service, *memOpps, *memConfigs) {
	opps := &memOpps{m: map[string]*oppdomain.Opportunity{
		"opp-1": {ID: "opp-1", OrgID: "org-1", Name: "Acme", CreatedAt: time.Now()},
	}}
	configs := &memConfigs{m: map[string]*domain.Config{}}
	return New(&memAssessments{}, configs, opps), opps, configs
}

func TestSubmit_StampsOpportunity(t *testing.T) {
	svc, opps, _ := newTestScoring()
	answers := domain.Answers{
		domain.PillarMetrics:      strings.Repeat("Projected ROI of 40% on revenue growth. ", 6),
		domain.PillarChampion:     "VP Ops is our champion and internal advocate.",
		domain.PillarIdentifyPain: "Manual reporting pain costs two days a week.",
	}
	a, err := svc.Submit(context.Background(), "org-1", "opp-1", "u-1", answers)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if a.Score <= 0 {
		t.Errorf("Score = %d, want > 0", a.Score)
	}
	if opps.score != a.Score || opps.band != string(a.Band) {
		t.Errorf("opportunity not stamped: score %d band %q", opps.score, opps.band)
	}

	got, err := svc.Latest(context.Background(), "org-1", "opp-1")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.ID != a.ID {
		t.Errorf("Latest ID = %q, want %q", got.ID, a.ID)
	}
}

func TestSubmit_UnknownOpportunity(t *testing.T) {
	svc, _, _ := newTestScoring()
	_, err := svc.Submit(context.Background(), "org-1", "opp-missing", "u-1", domain.Answers{})
	if !errors.Is(err, ErrOpportunityNotFound) {
		t.Fatalf("Submit err = %v, want ErrOpportunityNotFound", err)
	}
}

func TestLatest_NoAssessment(t *testing.T) {
	svc, _, _ := newTestScoring()
	_, err := svc.Latest(context.Background(), "org-1", "opp-1")
	if !errors.Is(err, ErrNoAssessment) {
		t.Fatalf("Latest err = %v, want ErrNoAssessment", err)
	}
}

func TestPutConfig_Validates(t *testing.T) {
	svc, _, configs := newTestScoring()
	bad := &domain.Config{Pillars: map[domain.Pillar]domain.PillarConfig{domain.PillarMetrics: {Weight: 100}}}
	if err := svc.PutConfig(context.Background(), "org-1", bad, "u-1"); err == nil {
		t.Fatal("PutConfig accepted config missing pillars")
	}
	good := domain.DefaultConfig()
	if err := svc.PutConfig(context.Background(), "org-1", good, "u-1"); err != nil {
		t.Fatalf("PutConfig: %v", err)
	}
	if configs.m["org-1"] == nil {
		t.Fatal("config not stored")
	}

	cfg, err := svc.ConfigFor(context.Background(), "org-2")
	if err != nil {
		t.Fatalf("ConfigFor: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default fallback invalid: %v", err)
	}
}
