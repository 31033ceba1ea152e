package rbac

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"fulqrun/backend/internal/membership/domain"
	"fulqrun/backend/internal/server/middleware"
)

type mockGetter struct {
	m   *domain.Membership
	err error
}

func (g *mockGetter) GetByUserAndOrg(ctx context.Context, userID, orgID string) (*domain.Membership, error) {
	return g.m, g.err
}

func authedCtx() context.Context {
	return middleware.WithIdentity(context.Background(), "user-1", "org-1", "rep", "sess-1")
}

func TestRequireMember_Success(t *testing.T) {
	getter := &mockGetter{m: &domain.Membership{UserID: "user-1", OrgID: "org-1", Role: domain.RoleRep}}
	orgID, userID, err := RequireMember(authedCtx(), getter)
	if err != nil {
		t.Fatalf("RequireMember: %v", err)
	}
	if orgID != "org-1" || userID != "user-1" {
		t.Errorf("got (%q, %q), want (org-1, user-1)", orgID, userID)
	}
}

func TestRequireMember_NoContext(t *testing.T) {
	_, _, err := RequireMember(context.Background(), &mockGetter{})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestRequireAdmin_RepForbidden(t *testing.T) {
	getter := &mockGetter{m: &domain.Membership{Role: domain.RoleRep}}
	_, _, err := RequireAdmin(authedCtx(), getter)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestRequireManager_AdminAllowed(t *testing.T) {
	getter := &mockGetter{m: &domain.Membership{Role: domain.RoleAdmin}}
	if _, _, err := RequireManager(authedCtx(), getter); err != nil {
		t.Fatalf("RequireManager with admin: %v", err)
	}
}

func TestRequireMember_NotMember(t *testing.T) {
	_, _, err := RequireMember(authedCtx(), &mockGetter{m: nil})
	if !errors.Is(err, ErrNotMember) {
		t.Fatalf("err = %v, want ErrNotMember", err)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrNotMember, http.StatusForbidden},
		{ErrForbidden, http.StatusForbidden},
		{ErrLookupFailed, http.StatusInternalServerError},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := StatusFor(tc.err); got != tc.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
