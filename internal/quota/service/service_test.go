package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fulqrun/backend/internal/quota/domain"
)

type wonKey struct {
	userID string
}

type memQuotaRepo struct {
	mu    sync.Mutex
	plans map[string]*domain.QuotaPlan
	won   map[wonKey]int64
}

func newMemQuotaRepo() *memQuotaRepo {
	return &memQuotaRepo{plans: make(map[string]*domain.QuotaPlan), won: make(map[wonKey]int64)}
}

func (m *memQuotaRepo) GetByID(_ context.Context, orgID, id string) (*domain.QuotaPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.plans[id]
	if !ok || q.OrgID != orgID {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (m *memQuotaRepo) ListByOrg(_ context.Context, orgID string, userID *string, _, _ int32) ([]*domain.QuotaPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.QuotaPlan
	for _, q := range m.plans {
		if q.OrgID != orgID {
			continue
		}
		if userID != nil && q.UserID != *userID {
			continue
		}
		cp := *q
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memQuotaRepo) Create(_ context.Context, q *domain.QuotaPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *q
	m.plans[q.ID] = &cp
	return nil
}

func (m *memQuotaRepo) Update(_ context.Context, q *domain.QuotaPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[q.ID]; !ok {
		return errors.New("no such plan")
	}
	cp := *q
	m.plans[q.ID] = &cp
	return nil
}

func (m *memQuotaRepo) Delete(_ context.Context, _, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.plans, id)
	return nil
}

func (m *memQuotaRepo) WonValueCents(_ context.Context, _, userID string, _, _ time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.won[wonKey{userID}], nil
}

func q1Input(userID string) PlanInput {
	return PlanInput{
		UserID:      userID,
		PeriodStart: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		TargetCents: 10_000_00,
	}
}

func TestCreateValidation(t *testing.T) {
	svc := New(newMemQuotaRepo())

	if _, err := svc.Create(context.Background(), "org-1", q1Input("user-1")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	in := q1Input("user-1")
	in.PeriodEnd = in.PeriodStart
	if _, err := svc.Create(context.Background(), "org-1", in); err == nil {
		t.Error("Create() with empty period should fail")
	}

	in = q1Input("user-1")
	in.TargetCents = 0
	if _, err := svc.Create(context.Background(), "org-1", in); err == nil {
		t.Error("Create() with zero target should fail")
	}
}

func TestAttainment(t *testing.T) {
	repo := newMemQuotaRepo()
	repo.won[wonKey{"user-1"}] = 7_500_00
	svc := New(repo)

	q, err := svc.Create(context.Background(), "org-1", q1Input("user-1"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	a, err := svc.Attainment(context.Background(), "org-1", q.ID)
	if err != nil {
		t.Fatalf("Attainment() error = %v", err)
	}
	if a.WonCents != 7_500_00 {
		t.Errorf("WonCents = %d, want 750000", a.WonCents)
	}
	if a.Ratio != 0.75 {
		t.Errorf("Ratio = %v, want 0.75", a.Ratio)
	}
}

func TestAttainmentUnknownPlan(t *testing.T) {
	svc := New(newMemQuotaRepo())
	if _, err := svc.Attainment(context.Background(), "org-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Attainment() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	svc := New(newMemQuotaRepo())
	q, _ := svc.Create(context.Background(), "org-1", q1Input("user-1"))

	in := q1Input("user-2")
	in.TargetCents = 20_000_00
	got, err := svc.Update(context.Background(), "org-1", q.ID, in)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.UserID != "user-2" || got.TargetCents != 20_000_00 {
		t.Errorf("updated plan = %s/%d, want user-2/2000000", got.UserID, got.TargetCents)
	}

	if err := svc.Delete(context.Background(), "org-1", q.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(context.Background(), "org-1", q.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
