package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"fulqrun/backend/internal/audit"
	"fulqrun/backend/internal/audit/domain"
	auditrepo "fulqrun/backend/internal/audit/repository"
)

// Audit returns middleware that records an audit log entry after each request.
// skipPaths is the set of route patterns to not audit (e.g. /healthz, GET-heavy
// polling routes). Create is best-effort: failures are logged and do not fail
// the request. Only writes when org_id is set (authenticated context).
func Audit(auditRepo auditrepo.Repository, skipPaths map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			pattern := routePattern(r)
			if skipPaths[pattern] {
				return
			}
			orgID, _ := GetOrgID(r.Context())
			if orgID == "" {
				return
			}
			userID, _ := GetUserID(r.Context())
			ar := audit.ParseRoute(r.Method, pattern)
			entry := &domain.AuditLog{
				ID:        uuid.New().String(),
				OrgID:     orgID,
				UserID:    userID,
				Action:    ar.Action,
				Resource:  ar.Resource,
				IP:        ClientIP(r),
				Metadata:  "",
				CreatedAt: time.Now().UTC(),
			}
			if createErr := auditRepo.Create(r.Context(), entry); createErr != nil {
				log.Printf("audit: failed to create audit log: %v", createErr)
			}
		})
	}
}

// routePattern returns the matched chi route pattern, falling back to the raw path.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
