package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fulqrun/backend/internal/connector/domain"
	"fulqrun/backend/internal/connector/service"
	"fulqrun/backend/internal/platform/rbac"
	"fulqrun/backend/internal/server/httpx"
)

// Handler serves connector CRUD. All routes are admin-gated; webhook URLs
// and secrets are org credential material.
type Handler struct {
	svc     *service.Service
	members rbac.OrgMembershipGetter
}

func New(svc *service.Service, members rbac.OrgMembershipGetter) *Handler {
	return &Handler{svc: svc, members: members}
}

type connectorRequest struct {
	Kind    string        `json:"kind"`
	Name    string        `json:"name"`
	Config  domain.Config `json:"config"`
	Enabled bool          `json:"enabled"`
}

type connectorResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	Config    confView  `json:"config"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// confView omits the secret from responses.
type confView struct {
	WebhookURL string   `json:"webhook_url"`
	HasSecret  bool     `json:"has_secret"`
	EventTypes []string `json:"event_types,omitempty"`
}

func toResponse(c *domain.Connector) connectorResponse {
	return connectorResponse{
		ID:   c.ID,
		Kind: string(c.Kind),
		Name: c.Name,
		Config: confView{
			WebhookURL: c.Config.WebhookURL,
			HasSecret:  c.Config.Secret != "",
			EventTypes: c.Config.EventTypes,
		},
		Enabled:   c.Enabled,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrNotFound) {
		httpx.Error(w, http.StatusNotFound, err.Error())
		return
	}
	httpx.Internal(w, err)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireAdmin(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var req connectorRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := h.svc.Create(r.Context(), orgID, service.Input{
		Kind:    domain.Kind(req.Kind),
		Name:    req.Name,
		Config:  req.Config,
		Enabled: req.Enabled,
	})
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(c))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireAdmin(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	c, err := h.svc.Get(r.Context(), orgID, chi.URLParam(r, "connectorID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(c))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireAdmin(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	limit, offset := httpx.Pagination(r)
	conns, err := h.svc.List(r.Context(), orgID, limit, offset)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	out := make([]connectorResponse, 0, len(conns))
	for _, c := range conns {
		out = append(out, toResponse(c))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"connectors": out})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireAdmin(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var req connectorRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := h.svc.Update(r.Context(), orgID, chi.URLParam(r, "connectorID"), service.Input{
		Kind:    domain.Kind(req.Kind),
		Name:    req.Name,
		Config:  req.Config,
		Enabled: req.Enabled,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.respondErr(w, err)
			return
		}
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(c))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireAdmin(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	if err := h.svc.Delete(r.Context(), orgID, chi.URLParam(r, "connectorID")); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
