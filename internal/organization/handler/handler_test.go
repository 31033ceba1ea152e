package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	membershipdomain "fulqrun/backend/internal/membership/domain"
	"fulqrun/backend/internal/organization/domain"
	"fulqrun/backend/internal/server/middleware"
)

type memOrgs struct {
	m map[string]*domain.Org
}

func (r *memOrgs) GetByID(ctx context.Context, id string) (*domain.Org, error) {
	return r.m[id], nil
}

func (r *memOrgs) Create(ctx context.Context, o *domain.Org) error {
	r.m[o.ID] = o
	return nil
}

func (r *memOrgs) Update(ctx context.Context, o *domain.Org) error {
	r.m[o.ID] = o
	return nil
}

type memMembers struct {
	m map[string]*membershipdomain.Membership // key userID+"/"+orgID
}

func (r *memMembers) key(userID, orgID string) string { return userID + "/" + orgID }

func (r *memMembers) GetByUserAndOrg(ctx context.Context, userID, orgID string) (*membershipdomain.Membership, error) {
	return r.m[r.key(userID, orgID)], nil
}

func (r *memMembers) ListByOrg(ctx context.Context, orgID string, limit, offset int32) ([]*membershipdomain.Membership, error) {
	var out []*membershipdomain.Membership
	for _, m := range r.m {
		if m.OrgID == orgID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMembers) Create(ctx context.Context, m *membershipdomain.Membership) error {
	r.m[r.key(m.UserID, m.OrgID)] = m
	return nil
}

func (r *memMembers) UpdateRole(ctx context.Context, userID, orgID string, role membershipdomain.Role) error {
	if m, ok := r.m[r.key(userID, orgID)]; ok {
		m.Role = role
	}
	return nil
}

func (r *memMembers) Delete(ctx context.Context, userID, orgID string) error {
	delete(r.m, r.key(userID, orgID))
	return nil
}

func TestCreate_SeedsAdminMembership(t *testing.T) {
	orgs := &memOrgs{m: map[string]*domain.Org{}}
	members := &memMembers{m: map[string]*membershipdomain.Membership{}}
	h := New(orgs, members)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/orgs", strings.NewReader(`{"name":"Acme"}`))
	r = r.WithContext(middleware.WithIdentity(r.Context(), "u-1", "", "", "sess-1"))
	w := httptest.NewRecorder()
	h.Create(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("Create status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	if len(orgs.m) != 1 {
		t.Fatalf("orgs created = %d, want 1", len(orgs.m))
	}
	var orgID string
	for id := range orgs.m {
		orgID = id
	}
	m := members.m["u-1/"+orgID]
	if m == nil {
		t.Fatal("creator membership not seeded")
	}
	if m.ID == "" {
		t.Error("membership created without ID")
	}
	if m.Role != membershipdomain.RoleAdmin {
		t.Errorf("membership role = %q, want %q", m.Role, membershipdomain.RoleAdmin)
	}
}

func TestCreate_RequiresAuth(t *testing.T) {
	h := New(&memOrgs{m: map[string]*domain.Org{}}, &memMembers{m: map[string]*membershipdomain.Membership{}})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/orgs", strings.NewReader(`{"name":"Acme"}`))
	w := httptest.NewRecorder()
	h.Create(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Create status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
