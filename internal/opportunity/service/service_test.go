package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"fulqrun/backend/internal/opportunity/domain"
	"fulqrun/backend/internal/opportunity/repository"
)

type memOppRepo struct {
	mu sync.Mutex
	m  map[string]*domain.Opportunity
}

func newMemOppRepo() *memOppRepo { return &memOppRepo{m: map[string]*domain.Opportunity{}} }

func (r *memOppRepo) GetByID(ctx context.Context, orgID, id string) (*domain.Opportunity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.m[id]
	if o == nil || o.OrgID != orgID {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *memOppRepo) ListByOrg(ctx context.Context, orgID string, f repository.Filter, limit, offset int32) ([]*domain.Opportunity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Opportunity
	for _, o := range r.m {
		if o.OrgID == orgID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memOppRepo) Create(ctx context.Context, o *domain.Opportunity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.m[o.ID] = &cp
	return nil
}

func (r *memOppRepo) Update(ctx context.Context, o *domain.Opportunity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.m[o.ID] = &cp
	return nil
}

func (r *memOppRepo) Delete(ctx context.Context, orgID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, id)
	return nil
}

func (r *memOppRepo) UpdateScore(ctx context.Context, orgID, id string, score int, band string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.m[id]; ok {
		o.Score = score
		o.Band = band
	}
	return nil
}

type recordedChange struct {
	entityType, entityID, op string
}

type memRecorder struct {
	mu      sync.Mutex
	changes []recordedChange
}

func (r *memRecorder) RecordChange(ctx context.Context, orgID, entityType, entityID, op string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, recordedChange{entityType, entityID, op})
	return nil
}

func newTestService() (*Service, *memOppRepo, *memRecorder) {
	repo := newMemOppRepo()
	rec := &memRecorder{}
	return New(repo, nil, rec), repo, rec
}

func TestCreateAndChangeStage(t *testing.T) {
	svc, _, rec := newTestService()
	ctx := context.Background()

	o, err := svc.Create(ctx, "org-1", "u-1", CreateInput{Name: "Acme expansion", ValueCents: 500000})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if o.Stage != domain.StageProspecting {
		t.Errorf("Stage = %q, want %q", o.Stage, domain.StageProspecting)
	}

	o, err = svc.ChangeStage(ctx, "org-1", o.ID, domain.StageAdvancing)
	if err != nil {
		t.Fatalf("ChangeStage: %v", err)
	}
	if o.Stage != domain.StageAdvancing {
		t.Errorf("Stage = %q, want %q", o.Stage, domain.StageAdvancing)
	}

	// One step back is fine; two is not.
	if _, err := svc.ChangeStage(ctx, "org-1", o.ID, domain.StageEngaging); err != nil {
		t.Fatalf("ChangeStage back one: %v", err)
	}
	o, _ = svc.ChangeStage(ctx, "org-1", o.ID, domain.StageKeyDecision)
	if _, err := svc.ChangeStage(ctx, "org-1", o.ID, domain.StageEngaging); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("ChangeStage err = %v, want ErrInvalidTransition", err)
	}

	if len(rec.changes) == 0 || rec.changes[0].op != "create" {
		t.Errorf("changelog not recorded: %+v", rec.changes)
	}
}

func TestClose(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	o, err := svc.Create(ctx, "org-1", "u-1", CreateInput{Name: "Beta deal"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	closed, err := svc.Close(ctx, "org-1", o.ID, domain.StatusWon)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if closed.Status != domain.StatusWon || closed.ClosedAt == nil {
		t.Errorf("Close did not settle opportunity: %+v", closed)
	}

	if _, err := svc.Close(ctx, "org-1", o.ID, domain.StatusLost); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("re-Close err = %v, want ErrAlreadyClosed", err)
	}
	if _, err := svc.ChangeStage(ctx, "org-1", o.ID, domain.StageEngaging); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("ChangeStage on closed err = %v, want ErrAlreadyClosed", err)
	}
	if _, err := svc.Update(ctx, "org-1", o.ID, UpdateInput{}); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("Update on closed err = %v, want ErrAlreadyClosed", err)
	}
	_ = repo
}

func TestClose_InvalidOutcome(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Close(context.Background(), "org-1", "missing", domain.StatusOpen)
	if !errors.Is(err, ErrInvalidOutcome) {
		t.Fatalf("Close err = %v, want ErrInvalidOutcome", err)
	}
}

func TestGet_WrongOrg(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	o, err := svc.Create(ctx, "org-1", "u-1", CreateInput{Name: "Gamma"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Get(ctx, "org-2", o.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-org Get err = %v, want ErrNotFound", err)
	}
}
