package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"fulqrun/backend/internal/membership/domain"
	"fulqrun/backend/internal/server/middleware"
	userdomain "fulqrun/backend/internal/user/domain"
)

type memMembers struct {
	m map[string]*domain.Membership // key userID+"/"+orgID
}

func (r *memMembers) key(userID, orgID string) string { return userID + "/" + orgID }

func (r *memMembers) GetByUserAndOrg(ctx context.Context, userID, orgID string) (*domain.Membership, error) {
	return r.m[r.key(userID, orgID)], nil
}

func (r *memMembers) ListByOrg(ctx context.Context, orgID string, limit, offset int32) ([]*domain.Membership, error) {
	var out []*domain.Membership
	for _, m := range r.m {
		if m.OrgID == orgID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMembers) Create(ctx context.Context, m *domain.Membership) error {
	r.m[r.key(m.UserID, m.OrgID)] = m
	return nil
}

func (r *memMembers) UpdateRole(ctx context.Context, userID, orgID string, role domain.Role) error {
	if m, ok := r.m[r.key(userID, orgID)]; ok {
		m.Role = role
	}
	return nil
}

func (r *memMembers) Delete(ctx context.Context, userID, orgID string) error {
	delete(r.m, r.key(userID, orgID))
	return nil
}

type memUsers struct {
	byEmail map[string]*userdomain.User
}

func (r *memUsers) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUsers) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	return r.byEmail[email], nil
}

func setup() (*Handler, *memMembers) {
	members := &memMembers{m: map[string]*domain.Membership{}}
	users := &memUsers{byEmail: map[string]*userdomain.User{
		"new@example.com": {ID: "u-new", Email: "new@example.com", Name: "New User"},
	}}
	members.m["u-admin/org-1"] = &domain.Membership{UserID: "u-admin", OrgID: "org-1", Role: domain.RoleAdmin, CreatedAt: time.Now()}
	return New(members, users), members
}

func authedReq(method, target, body, userID, orgID, role string, params map[string]string) *http.Request {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	ctx := middleware.WithIdentity(r.Context(), userID, orgID, role, "sess-1")
	if len(params) > 0 {
		rc := chi.NewRouteContext()
		for k, v := range params {
			rc.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rc)
	}
	return r.WithContext(ctx)
}

func TestAdd_AsAdmin(t *testing.T) {
	h, members := setup()
	w := httptest.NewRecorder()
	h.Add(w, authedReq(http.MethodPost, "/api/v1/members", `{"email":"new@example.com","role":"manager"}`, "u-admin", "org-1", "admin", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("Add status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	m := members.m["u-new/org-1"]
	if m == nil || m.Role != domain.RoleManager {
		t.Fatalf("membership not created with manager role: %+v", m)
	}
	if m.ID == "" {
		t.Error("membership created without ID")
	}
}

func TestAdd_RequiresAdmin(t *testing.T) {
	h, members := setup()
	members.m["u-rep/org-1"] = &domain.Membership{UserID: "u-rep", OrgID: "org-1", Role: domain.RoleRep}
	w := httptest.NewRecorder()
	h.Add(w, authedReq(http.MethodPost, "/api/v1/members", `{"email":"new@example.com"}`, "u-rep", "org-1", "rep", nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("Add status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestChangeRole_LastAdminProtected(t *testing.T) {
	h, _ := setup()
	w := httptest.NewRecorder()
	h.ChangeRole(w, authedReq(http.MethodPut, "/api/v1/members/u-admin", `{"role":"rep"}`, "u-admin", "org-1", "admin", map[string]string{"userID": "u-admin"}))
	if w.Code != http.StatusConflict {
		t.Fatalf("ChangeRole status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestRemove_LastAdminProtected(t *testing.T) {
	h, _ := setup()
	w := httptest.NewRecorder()
	h.Remove(w, authedReq(http.MethodDelete, "/api/v1/members/u-admin", "", "u-admin", "org-1", "admin", map[string]string{"userID": "u-admin"}))
	if w.Code != http.StatusConflict {
		t.Fatalf("Remove status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestRemove_Member(t *testing.T) {
	h, members := setup()
	members.m["u-rep/org-1"] = &domain.Membership{UserID: "u-rep", OrgID: "org-1", Role: domain.RoleRep}
	w := httptest.NewRecorder()
	h.Remove(w, authedReq(http.MethodDelete, "/api/v1/members/u-rep", "", "u-admin", "org-1", "admin", map[string]string{"userID": "u-rep"}))
	if w.Code != http.StatusOK {
		t.Fatalf("Remove status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if members.m["u-rep/org-1"] != nil {
		t.Fatal("membership not deleted")
	}
}
