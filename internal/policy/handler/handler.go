package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"fulqrun/backend/internal/platform/rbac"
	"fulqrun/backend/internal/policy/domain"
	"fulqrun/backend/internal/policy/engine"
	"fulqrun/backend/internal/policy/repository"
	"fulqrun/backend/internal/server/httpx"
)

// Handler exposes org policy management. Admin only.
type Handler struct {
	repo      repository.Repository
	evaluator engine.Evaluator
	members   rbac.OrgMembershipGetter
}

func New(repo repository.Repository, evaluator engine.Evaluator, members rbac.OrgMembershipGetter) *Handler {
	return &Handler{repo: repo, evaluator: evaluator, members: members}
}

type policyRequest struct {
	Name    string `json:"name"`
	Rules   string `json:"rules"`
	Enabled *bool  `json:"enabled"`
}

type policyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Rules     string    `json:"rules"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toResponse(p *domain.Policy) policyResponse {
	return policyResponse{
		ID:        p.ID,
		Name:      p.Name,
		Rules:     p.Rules,
		Enabled:   p.Enabled,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireAdmin(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	list, err := h.repo.ListByOrg(r.Context(), orgID)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	out := make([]policyResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toResponse(p))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireAdmin(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var req policyRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	now := time.Now().UTC()
	p := &domain.Policy{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		Name:      req.Name,
		Rules:     req.Rules,
		Enabled:   req.Enabled == nil || *req.Enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Validate(); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := engine.CheckSyntax(p.Rules); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.Create(r.Context(), p); err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(p))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireAdmin(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	p, err := h.repo.GetByID(r.Context(), orgID, chi.URLParam(r, "policyID"))
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	if p == nil {
		httpx.Error(w, http.StatusNotFound, "policy not found")
		return
	}
	var req policyRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Rules != "" {
		p.Rules = req.Rules
	}
	if req.Enabled != nil {
		p.Enabled = *req.Enabled
	}
	p.UpdatedAt = time.Now().UTC()
	if err := p.Validate(); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := engine.CheckSyntax(p.Rules); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.Update(r.Context(), p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpx.Error(w, http.StatusNotFound, "policy not found")
			return
		}
		httpx.Internal(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireAdmin(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	if err := h.repo.Delete(r.Context(), orgID, chi.URLParam(r, "policyID")); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpx.Error(w, http.StatusNotFound, "policy not found")
			return
		}
		httpx.Internal(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type evaluateRequest struct {
	Role          string `json:"role"`
	Action        string `json:"action"`
	ResourceType  string `json:"resource_type"`
	ResourceOwner string `json:"resource_owner"`
	UserID        string `json:"user_id"`
}

// Evaluate lets admins dry-run an access question against the org's policies.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	orgID, userID, err := rbac.RequireAdmin(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var req evaluateRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == "" {
		req.UserID = userID
	}
	allowed, err := h.evaluator.Allow(r.Context(), orgID, engine.AccessInput{
		UserID:        req.UserID,
		Role:          req.Role,
		Action:        req.Action,
		ResourceType:  req.ResourceType,
		ResourceOwner: req.ResourceOwner,
	})
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"allow": allowed})
}
