package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fulqrun/backend/internal/export/domain"
	"fulqrun/backend/internal/export/service"
	"fulqrun/backend/internal/platform/rbac"
	"fulqrun/backend/internal/server/httpx"
)

// Handler serves export job creation, status, and download.
type Handler struct {
	svc     *service.Service
	members rbac.OrgMembershipGetter
}

func New(svc *service.Service, members rbac.OrgMembershipGetter) *Handler {
	return &Handler{svc: svc, members: members}
}

type createRequest struct {
	Kind   string `json:"kind"`
	Format string `json:"format"`
}

type jobResponse struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	Format     string     `json:"format"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func toResponse(j *domain.ExportJob) jobResponse {
	return jobResponse{
		ID:         j.ID,
		Kind:       string(j.Kind),
		Format:     j.Format,
		Status:     string(j.Status),
		Error:      j.Error,
		CreatedAt:  j.CreatedAt,
		FinishedAt: j.FinishedAt,
	}
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotReady), errors.Is(err, service.ErrFailed):
		httpx.Error(w, http.StatusConflict, err.Error())
	default:
		httpx.Internal(w, err)
	}
}

// Create handles POST /api/v1/exports.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, userID, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var req createRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	j, err := h.svc.Create(r.Context(), orgID, userID, domain.Kind(req.Kind), req.Format)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	httpx.JSON(w, http.StatusAccepted, toResponse(j))
}

// Get handles GET /api/v1/exports/{exportID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	j, err := h.svc.Get(r.Context(), orgID, chi.URLParam(r, "exportID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(j))
}

// List handles GET /api/v1/exports.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	limit, offset := httpx.Pagination(r)
	jobs, err := h.svc.List(r.Context(), orgID, limit, offset)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toResponse(j))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"exports": out})
}

// Download handles GET /api/v1/exports/{exportID}/download.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	j, err := h.svc.Download(r.Context(), orgID, chi.URLParam(r, "exportID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-%s.csv", j.Kind, j.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(j.Payload)
}
