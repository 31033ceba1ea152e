// Package rbac resolves the caller's org membership and enforces the role ladder.
package rbac

import (
	"context"
	"errors"

	"fulqrun/backend/internal/membership/domain"
	"fulqrun/backend/internal/server/middleware"
)

// Sentinel errors; handlers map them to 401/403/500.
var (
	ErrUnauthenticated = errors.New("org and user context required")
	ErrNotMember       = errors.New("not a member of this organization")
	ErrForbidden       = errors.New("insufficient role")
	ErrLookupFailed    = errors.New("failed to resolve membership")
)

// OrgMembershipGetter returns a user's membership in an org. Used to resolve the caller's role.
type OrgMembershipGetter interface {
	GetByUserAndOrg(ctx context.Context, userID, orgID string) (*domain.Membership, error)
}

// RequireMember ensures the caller is authenticated and is a member of the
// context org (any role). Returns (orgID, userID, nil) on success.
func RequireMember(ctx context.Context, getter OrgMembershipGetter) (orgID, userID string, err error) {
	return requireRole(ctx, getter, domain.RoleRep)
}

// RequireManager ensures the caller has role manager or admin in the context org.
func RequireManager(ctx context.Context, getter OrgMembershipGetter) (orgID, userID string, err error) {
	return requireRole(ctx, getter, domain.RoleManager)
}

// RequireAdmin ensures the caller has role admin in the context org.
func RequireAdmin(ctx context.Context, getter OrgMembershipGetter) (orgID, userID string, err error) {
	return requireRole(ctx, getter, domain.RoleAdmin)
}

// requireRole re-checks membership in the database rather than trusting the
// role claim on the access token, so role changes take effect immediately.
func requireRole(ctx context.Context, getter OrgMembershipGetter, min domain.Role) (string, string, error) {
	orgID, okOrg := middleware.GetOrgID(ctx)
	userID, okUser := middleware.GetUserID(ctx)
	if !okOrg || orgID == "" || !okUser || userID == "" {
		return "", "", ErrUnauthenticated
	}
	m, err := getter.GetByUserAndOrg(ctx, userID, orgID)
	if err != nil {
		return "", "", ErrLookupFailed
	}
	if m == nil {
		return "", "", ErrNotMember
	}
	if !m.Role.AtLeast(min) {
		return "", "", ErrForbidden
	}
	return orgID, userID, nil
}

// StatusFor maps an rbac error to an HTTP status code. Unknown errors map to 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return 401
	case errors.Is(err, ErrNotMember), errors.Is(err, ErrForbidden):
		return 403
	default:
		return 500
	}
}
