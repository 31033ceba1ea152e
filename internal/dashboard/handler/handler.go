package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fulqrun/backend/internal/dashboard/domain"
	"fulqrun/backend/internal/dashboard/service"
	"fulqrun/backend/internal/platform/rbac"
	"fulqrun/backend/internal/server/httpx"
)

// Handler serves dashboard layout CRUD and the widget data fan-out.
type Handler struct {
	svc     *service.Service
	members rbac.OrgMembershipGetter
}

func New(svc *service.Service, members rbac.OrgMembershipGetter) *Handler {
	return &Handler{svc: svc, members: members}
}

type layoutRequest struct {
	Name    string          `json:"name"`
	Widgets []domain.Widget `json:"widgets"`
}

type dashboardResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Widgets   []domain.Widget `json:"widgets"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toResponse(d *domain.Dashboard) dashboardResponse {
	widgets := d.Widgets
	if widgets == nil {
		widgets = []domain.Widget{}
	}
	return dashboardResponse{
		ID:        d.ID,
		Name:      d.Name,
		Widgets:   widgets,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotOwner):
		httpx.Error(w, http.StatusForbidden, err.Error())
	default:
		httpx.Internal(w, err)
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, userID, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var req layoutRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := h.svc.Create(r.Context(), orgID, userID, service.LayoutInput(req))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(d))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, userID, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	d, err := h.svc.Get(r.Context(), orgID, userID, chi.URLParam(r, "dashboardID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(d))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID, userID, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	limit, offset := httpx.Pagination(r)
	dashboards, err := h.svc.List(r.Context(), orgID, userID, limit, offset)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	out := make([]dashboardResponse, 0, len(dashboards))
	for _, d := range dashboards {
		out = append(out, toResponse(d))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"dashboards": out})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	orgID, userID, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var req layoutRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := h.svc.Update(r.Context(), orgID, userID, chi.URLParam(r, "dashboardID"), service.LayoutInput(req))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrNotOwner) {
			h.respondErr(w, err)
			return
		}
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(d))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID, userID, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	if err := h.svc.Delete(r.Context(), orgID, userID, chi.URLParam(r, "dashboardID")); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Data handles GET /api/v1/dashboards/{dashboardID}/data.
func (h *Handler) Data(w http.ResponseWriter, r *http.Request) {
	orgID, userID, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	data, err := h.svc.Data(r.Context(), orgID, userID, chi.URLParam(r, "dashboardID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"widgets": data})
}
