package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fulqrun/backend/internal/opportunity/domain"
	"fulqrun/backend/internal/opportunity/repository"
	"fulqrun/backend/internal/opportunity/service"
	"fulqrun/backend/internal/platform/rbac"
	"fulqrun/backend/internal/server/httpx"
)

// Handler exposes opportunity CRUD and pipeline endpoints.
type Handler struct {
	svc     *service.Service
	members rbac.OrgMembershipGetter
}

func New(svc *service.Service, members rbac.OrgMembershipGetter) *Handler {
	return &Handler{svc: svc, members: members}
}

type opportunityRequest struct {
	Name       string     `json:"name"`
	ContactID  string     `json:"contact_id"`
	ValueCents int64      `json:"value_cents"`
	Currency   string     `json:"currency"`
	Stage      string     `json:"stage"`
	CloseDate  *time.Time `json:"close_date"`
}

type updateRequest struct {
	Name       *string    `json:"name"`
	ContactID  *string    `json:"contact_id"`
	OwnerID    *string    `json:"owner_id"`
	ValueCents *int64     `json:"value_cents"`
	Currency   *string    `json:"currency"`
	CloseDate  *time.Time `json:"close_date"`
}

type stageRequest struct {
	Stage string `json:"stage"`
}

type closeRequest struct {
	Outcome string `json:"outcome"`
}

type opportunityResponse struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	ContactID  string     `json:"contact_id,omitempty"`
	Name       string     `json:"name"`
	ValueCents int64      `json:"value_cents"`
	Currency   string     `json:"currency"`
	Stage      string     `json:"stage"`
	Status     string     `json:"status"`
	Score      int        `json:"score"`
	Band       string     `json:"band"`
	CloseDate  *time.Time `json:"close_date,omitempty"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func toResponse(o *domain.Opportunity) opportunityResponse {
	return opportunityResponse{
		ID:         o.ID,
		OwnerID:    o.OwnerID,
		ContactID:  o.ContactID,
		Name:       o.Name,
		ValueCents: o.ValueCents,
		Currency:   o.Currency,
		Stage:      string(o.Stage),
		Status:     string(o.Status),
		Score:      o.Score,
		Band:       o.Band,
		CloseDate:  o.CloseDate,
		ClosedAt:   o.ClosedAt,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyClosed),
		errors.Is(err, service.ErrInvalidTransition):
		httpx.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidOutcome):
		httpx.Error(w, http.StatusBadRequest, err.Error())
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
	var req opportunityRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	o, err := h.svc.Create(r.Context(), orgID, userID, service.CreateInput{
		Name:       req.Name,
		ContactID:  req.ContactID,
		ValueCents: req.ValueCents,
		Currency:   req.Currency,
		Stage:      domain.Stage(req.Stage),
		CloseDate:  req.CloseDate,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.respondErr(w, err)
			return
		}
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(o))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	o, err := h.svc.Get(r.Context(), orgID, chi.URLParam(r, "oppID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(o))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var f repository.Filter
	q := r.URL.Query()
	if s := q.Get("stage"); s != "" {
		stage := domain.Stage(s)
		f.Stage = &stage
	}
	if s := q.Get("status"); s != "" {
		status := domain.Status(s)
		f.Status = &status
	}
	if s := q.Get("owner_id"); s != "" {
		f.OwnerID = &s
	}
	limit, offset := httpx.Pagination(r)
	list, err := h.svc.List(r.Context(), orgID, f, limit, offset)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	out := make([]opportunityResponse, 0, len(list))
	for _, o := range list {
		out = append(out, toResponse(o))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var req updateRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	o, err := h.svc.Update(r.Context(), orgID, chi.URLParam(r, "oppID"), service.UpdateInput{
		Name:       req.Name,
		ContactID:  req.ContactID,
		OwnerID:    req.OwnerID,
		ValueCents: req.ValueCents,
		Currency:   req.Currency,
		CloseDate:  req.CloseDate,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(o))
}

func (h *Handler) ChangeStage(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var req stageRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	o, err := h.svc.ChangeStage(r.Context(), orgID, chi.URLParam(r, "oppID"), domain.Stage(req.Stage))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(o))
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var req closeRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	o, err := h.svc.Close(r.Context(), orgID, chi.URLParam(r, "oppID"), domain.Status(req.Outcome))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(o))
}

// Delete requires manager or admin.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireManager(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	if err := h.svc.Delete(r.Context(), orgID, chi.URLParam(r, "oppID")); err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
