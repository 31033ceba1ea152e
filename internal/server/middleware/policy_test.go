package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fulqrun/backend/internal/policy/engine"
)

type fakeEvaluator struct {
	allowed bool
	err     error
	lastIn  engine.AccessInput
	lastOrg string
}

func (f *fakeEvaluator) Allow(ctx context.Context, orgID string, in engine.AccessInput) (bool, error) {
	f.lastOrg = orgID
	f.lastIn = in
	return f.allowed, f.err
}

func policyReq(userID, orgID, role string) *http.Request {
	r := httptest.NewRequest(http.MethodPut, "/api/v1/orgs/org-1", nil)
	return r.WithContext(WithIdentity(r.Context(), userID, orgID, role, "sess-1"))
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestPolicyAllows(t *testing.T) {
	ev := &fakeEvaluator{allowed: true}
	var called bool
	w := httptest.NewRecorder()
	Policy(ev, "org.update", "organization")(okHandler(&called)).ServeHTTP(w, policyReq("u-1", "org-1", "admin"))

	if !called {
		t.Fatal("handler not reached on allow")
	}
	if ev.lastOrg != "org-1" {
		t.Errorf("evaluated org = %q, want %q", ev.lastOrg, "org-1")
	}
	if ev.lastIn.Action != "org.update" || ev.lastIn.Role != "admin" || ev.lastIn.UserID != "u-1" {
		t.Errorf("access input = %+v", ev.lastIn)
	}
}

func TestPolicyDenies(t *testing.T) {
	ev := &fakeEvaluator{allowed: false}
	var called bool
	w := httptest.NewRecorder()
	Policy(ev, "org.update", "organization")(okHandler(&called)).ServeHTTP(w, policyReq("u-1", "org-1", "rep"))

	if called {
		t.Fatal("handler reached on deny")
	}
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestPolicyEvaluationErrorFallsThrough(t *testing.T) {
	ev := &fakeEvaluator{err: errors.New("rego compile failed")}
	var called bool
	w := httptest.NewRecorder()
	Policy(ev, "org.update", "organization")(okHandler(&called)).ServeHTTP(w, policyReq("u-1", "org-1", "admin"))

	if !called {
		t.Fatal("handler not reached when evaluation fails")
	}
}

func TestPolicySkipsWithoutOrg(t *testing.T) {
	ev := &fakeEvaluator{allowed: false}
	var called bool
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/orgs", nil)
	r = r.WithContext(WithIdentity(r.Context(), "u-1", "", "", "sess-1"))
	Policy(ev, "org.update", "organization")(okHandler(&called)).ServeHTTP(w, r)

	if !called {
		t.Fatal("handler not reached for org-less request")
	}
	if ev.lastOrg != "" {
		t.Errorf("evaluator called with org %q for org-less request", ev.lastOrg)
	}
}
