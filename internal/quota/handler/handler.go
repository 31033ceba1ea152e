package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fulqrun/backend/internal/platform/rbac"
	"fulqrun/backend/internal/quota/domain"
	"fulqrun/backend/internal/quota/service"
	"fulqrun/backend/internal/server/httpx"
)

// Handler serves quota plan CRUD and attainment. Writes are manager-gated.
type Handler struct {
	svc     *service.Service
	members rbac.OrgMembershipGetter
}

func New(svc *service.Service, members rbac.OrgMembershipGetter) *Handler {
	return &Handler{svc: svc, members: members}
}

type planRequest struct {
	UserID      string    `json:"user_id"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	TargetCents int64     `json:"target_cents"`
}

type planResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	TargetCents int64     `json:"target_cents"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toResponse(q *domain.QuotaPlan) planResponse {
	return planResponse{
		ID:          q.ID,
		UserID:      q.UserID,
		PeriodStart: q.PeriodStart,
		PeriodEnd:   q.PeriodEnd,
		TargetCents: q.TargetCents,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
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
	orgID, _, err := rbac.RequireManager(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var req planRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	q, err := h.svc.Create(r.Context(), orgID, service.PlanInput(req))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(q))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	q, err := h.svc.Get(r.Context(), orgID, chi.URLParam(r, "quotaID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(q))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var userID *string
	if v := r.URL.Query().Get("user_id"); v != "" {
		userID = &v
	}
	limit, offset := httpx.Pagination(r)
	plans, err := h.svc.List(r.Context(), orgID, userID, limit, offset)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	out := make([]planResponse, 0, len(plans))
	for _, q := range plans {
		out = append(out, toResponse(q))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"quotas": out})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireManager(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var req planRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	q, err := h.svc.Update(r.Context(), orgID, chi.URLParam(r, "quotaID"), service.PlanInput(req))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.respondErr(w, err)
			return
		}
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(q))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireManager(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	if err := h.svc.Delete(r.Context(), orgID, chi.URLParam(r, "quotaID")); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Attainment handles GET /api/v1/quotas/{quotaID}/attainment.
func (h *Handler) Attainment(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	a, err := h.svc.Attainment(r.Context(), orgID, chi.URLParam(r, "quotaID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}
