package engine

import (
	"context"
	"testing"
	"time"

	"fulqrun/backend/internal/policy/domain"
)

type memPolicyRepo struct {
	policies []*domain.Policy
}

func (r *memPolicyRepo) GetByID(ctx context.Context, orgID, id string) (*domain.Policy, error) {
	return nil, nil
}

func (r *memPolicyRepo) ListByOrg(ctx context.Context, orgID string) ([]*domain.Policy, error) {
	return r.policies, nil
}

func (r *memPolicyRepo) ListEnabledByOrg(ctx context.Context, orgID string) ([]*domain.Policy, error) {
	var out []*domain.Policy
	for _, p := range r.policies {
		if p.Enabled && p.OrgID == orgID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPolicyRepo) Create(ctx context.Context, p *domain.Policy) error {
	r.policies = append(r.policies, p)
	return nil
}

func (r *memPolicyRepo) Update(ctx context.Context, p *domain.Policy) error { return nil }

func (r *memPolicyRepo) Delete(ctx context.Context, orgID, id string) error { return nil }

func TestHealthCheck(t *testing.T) {
	e := NewOPAEvaluator(nil)
	if err := e.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestAllow_DefaultLadder(t *testing.T) {
	e := NewOPAEvaluator(&memPolicyRepo{})
	ctx := context.Background()

	tests := []struct {
		name string
		in   AccessInput
		want bool
	}{
		{"admin does org admin", AccessInput{Role: "admin", Action: "org.update"}, true},
		{"manager blocked from org admin", AccessInput{Role: "manager", Action: "member.remove"}, false},
		{"manager deletes lead", AccessInput{Role: "manager", Action: "lead.delete"}, true},
		{"rep blocked from delete", AccessInput{Role: "rep", Action: "lead.delete"}, false},
		{"rep edits own record", AccessInput{Role: "rep", Action: "lead.update", UserID: "u-1", ResourceOwner: "u-1"}, true},
		{"rep blocked from others' record", AccessInput{Role: "rep", Action: "lead.update", UserID: "u-1", ResourceOwner: "u-2"}, false},
		{"rep reads unowned resource", AccessInput{Role: "rep", Action: "dashboard.read", UserID: "u-1"}, true},
		{"unknown role denied", AccessInput{Role: "viewer", Action: "lead.read"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Allow(ctx, "org-1", tt.in)
			if err != nil {
				t.Fatalf("Allow: %v", err)
			}
			if got != tt.want {
				t.Errorf("Allow(%+v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAllow_OrgPolicyGrants(t *testing.T) {
	repo := &memPolicyRepo{policies: []*domain.Policy{{
		ID:    "p-1",
		OrgID: "org-1",
		Name:  "reps may delete leads",
		Rules: `package fulqrun.authz

allow if {
	input.role == "rep"
	input.action == "lead.delete"
}
`,
		Enabled:   true,
		CreatedAt: time.Now(),
	}}}
	e := NewOPAEvaluator(repo)
	got, err := e.Allow(context.Background(), "org-1", AccessInput{Role: "rep", Action: "lead.delete"})
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !got {
		t.Error("org policy grant not honored")
	}
}

func TestAllow_BrokenOrgPolicyFallsBack(t *testing.T) {
	repo := &memPolicyRepo{policies: []*domain.Policy{{
		ID:      "p-bad",
		OrgID:   "org-1",
		Name:    "broken",
		Rules:   `package fulqrun.authz this is not rego`,
		Enabled: true,
	}}}
	e := NewOPAEvaluator(repo)
	got, err := e.Allow(context.Background(), "org-1", AccessInput{Role: "admin", Action: "org.update"})
	if err != nil {
		t.Fatalf("Allow after fallback: %v", err)
	}
	if !got {
		t.Error("fallback to default policy did not allow admin")
	}
}

func TestCheckSyntax(t *testing.T) {
	if err := CheckSyntax(defaultRegoPolicy); err != nil {
		t.Fatalf("CheckSyntax(default): %v", err)
	}
	if err := CheckSyntax("nonsense {{{"); err == nil {
		t.Fatal("CheckSyntax accepted invalid rego")
	}
}
