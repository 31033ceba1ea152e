package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	membershipdomain "fulqrun/backend/internal/membership/domain"
	membershiprepo "fulqrun/backend/internal/membership/repository"
	"fulqrun/backend/internal/organization/domain"
	"fulqrun/backend/internal/organization/repository"
	"fulqrun/backend/internal/platform/rbac"
	"fulqrun/backend/internal/server/httpx"
	"fulqrun/backend/internal/server/middleware"
)

// Handler exposes organization lifecycle endpoints.
type Handler struct {
	orgs    repository.Repository
	members membershiprepo.Repository
}

func New(orgs repository.Repository, members membershiprepo.Repository) *Handler {
	return &Handler{orgs: orgs, members: members}
}

type createOrgRequest struct {
	Name string `json:"name"`
	Plan string `json:"plan"`
}

type updateOrgRequest struct {
	Name string `json:"name"`
	Plan string `json:"plan"`
}

type orgResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}

func toOrgResponse(o *domain.Org) orgResponse {
	return orgResponse{
		ID:        o.ID,
		Name:      o.Name,
		Status:    string(o.Status),
		Plan:      string(o.Plan),
		CreatedAt: o.CreatedAt,
	}
}

// Create provisions a new org and makes the caller its admin. Any
// authenticated user can create an org; no existing membership needed.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req createOrgRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	now := time.Now().UTC()
	org := &domain.Org{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		Status:    domain.OrgStatusActive,
		Plan:      domain.Plan(req.Plan),
		CreatedAt: now,
	}
	if org.Plan == "" {
		org.Plan = domain.PlanStarter
	}
	if err := org.Validate(); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.orgs.Create(r.Context(), org); err != nil {
		httpx.Internal(w, err)
		return
	}
	m := &membershipdomain.Membership{
		ID:        uuid.New().String(),
		UserID:    userID,
		OrgID:     org.ID,
		Role:      membershipdomain.RoleAdmin,
		CreatedAt: now,
	}
	if err := h.members.Create(r.Context(), m); err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toOrgResponse(org))
}

type roleCheck func(ctx context.Context, getter rbac.OrgMembershipGetter) (string, string, error)

// requireOrg runs the given role check and verifies the URL org matches the
// token org. Cross-org access is a 403 either way.
func (h *Handler) requireOrg(r *http.Request, check roleCheck) (string, error) {
	ctxOrg, _, err := check(r.Context(), h.members)
	if err != nil {
		return "", err
	}
	if chi.URLParam(r, "orgID") != ctxOrg {
		return "", rbac.ErrNotMember
	}
	return ctxOrg, nil
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, err := h.requireOrg(r, rbac.RequireMember)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	org, err := h.orgs.GetByID(r.Context(), orgID)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	if org == nil {
		httpx.Error(w, http.StatusNotFound, "organization not found")
		return
	}
	httpx.JSON(w, http.StatusOK, toOrgResponse(org))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	orgID, err := h.requireOrg(r, rbac.RequireAdmin)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var req updateOrgRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	org, err := h.orgs.GetByID(r.Context(), orgID)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	if org == nil {
		httpx.Error(w, http.StatusNotFound, "organization not found")
		return
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		org.Name = name
	}
	if req.Plan != "" {
		org.Plan = domain.Plan(req.Plan)
	}
	if err := org.Validate(); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.orgs.Update(r.Context(), org); err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrgResponse(org))
}

// Suspend disables an org. Suspended orgs refuse logins and data access.
func (h *Handler) Suspend(w http.ResponseWriter, r *http.Request) {
	orgID, err := h.requireOrg(r, rbac.RequireAdmin)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	org, err := h.orgs.GetByID(r.Context(), orgID)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	if org == nil {
		httpx.Error(w, http.StatusNotFound, "organization not found")
		return
	}
	org.Status = domain.OrgStatusSuspended
	if err := h.orgs.Update(r.Context(), org); err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrgResponse(org))
}
