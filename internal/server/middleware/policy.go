package middleware

import (
	"log"
	"net/http"

	"fulqrun/backend/internal/policy/engine"
	"fulqrun/backend/internal/server/httpx"
)

// Policy returns middleware that asks the policy evaluator whether the
// caller may perform action before the handler runs. resourceType names the
// resource being acted on (e.g. "organization", "connector").
//
// A deny is a 403. Requests without an org in context pass through: the
// handlers' own role checks still apply, and org-less routes have no policy
// scope. Evaluation errors are logged and fail open to the same static role
// checks, so a broken org policy cannot lock admins out.
func Policy(evaluator engine.Evaluator, action, resourceType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			orgID, _ := GetOrgID(r.Context())
			if evaluator == nil || orgID == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, _ := GetUserID(r.Context())
			role, _ := GetRole(r.Context())
			allowed, err := evaluator.Allow(r.Context(), orgID, engine.AccessInput{
				UserID:       userID,
				Role:         role,
				Action:       action,
				ResourceType: resourceType,
			})
			if err != nil {
				log.Printf("policy: evaluate %s for org %s: %v", action, orgID, err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				httpx.Error(w, http.StatusForbidden, "denied by org policy")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
