package handler

import (
	"net/http"
	"time"

	auditrepo "fulqrun/backend/internal/audit/repository"
	"fulqrun/backend/internal/platform/rbac"
	"fulqrun/backend/internal/server/httpx"
)

// Handler serves the admin audit log view.
type Handler struct {
	repo    auditrepo.Repository
	members rbac.OrgMembershipGetter
}

func New(repo auditrepo.Repository, members rbac.OrgMembershipGetter) *Handler {
	return &Handler{repo: repo, members: members}
}

type entryResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	IP        string    `json:"ip"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// List handles GET /api/v1/audit?user_id=&action=&resource=. Admin only.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireAdmin(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var f auditrepo.Filter
	q := r.URL.Query()
	if v := q.Get("user_id"); v != "" {
		f.UserID = &v
	}
	if v := q.Get("action"); v != "" {
		f.Action = &v
	}
	if v := q.Get("resource"); v != "" {
		f.Resource = &v
	}
	limit, offset := httpx.Pagination(r)
	entries, err := h.repo.ListByOrg(r.Context(), orgID, f, limit, offset)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:        e.ID,
			UserID:    e.UserID,
			Action:    e.Action,
			Resource:  e.Resource,
			IP:        e.IP,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": out})
}
