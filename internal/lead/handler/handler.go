package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fulqrun/backend/internal/lead/domain"
	"fulqrun/backend/internal/lead/repository"
	"fulqrun/backend/internal/lead/service"
	"fulqrun/backend/internal/platform/rbac"
	"fulqrun/backend/internal/server/httpx"
)

// Handler exposes lead CRUD and conversion endpoints.
type Handler struct {
	svc     *service.Service
	members rbac.OrgMembershipGetter
}

func New(svc *service.Service, members rbac.OrgMembershipGetter) *Handler {
	return &Handler{svc: svc, members: members}
}

type leadRequest struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Source  string `json:"source"`
}

type leadUpdateRequest struct {
	Name    *string `json:"name"`
	Company *string `json:"company"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Source  *string `json:"source"`
	Status  *string `json:"status"`
	OwnerID *string `json:"owner_id"`
}

type convertRequest struct {
	OpportunityName string `json:"opportunity_name"`
	ValueCents      int64  `json:"value_cents"`
	Currency        string `json:"currency"`
}

type leadResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Company   string    `json:"company,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Source    string    `json:"source,omitempty"`
	Status    string    `json:"status"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toResponse(l *domain.Lead) leadResponse {
	return leadResponse{
		ID:        l.ID,
		OwnerID:   l.OwnerID,
		Name:      l.Name,
		Company:   l.Company,
		Email:     l.Email,
		Phone:     l.Phone,
		Source:    l.Source,
		Status:    string(l.Status),
		Score:     l.Score,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrTerminal):
		httpx.Error(w, http.StatusConflict, err.Error())
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
	var req leadRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	l, err := h.svc.Create(r.Context(), orgID, userID, service.CreateInput{
		Name: req.Name, Company: req.Company, Email: req.Email, Phone: req.Phone, Source: req.Source,
	})
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(l))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	l, err := h.svc.Get(r.Context(), orgID, chi.URLParam(r, "leadID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(l))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var f repository.Filter
	q := r.URL.Query()
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
	out := make([]leadResponse, 0, len(list))
	for _, l := range list {
		out = append(out, toResponse(l))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var req leadUpdateRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	in := service.UpdateInput{
		Name: req.Name, Company: req.Company, Email: req.Email,
		Phone: req.Phone, Source: req.Source, OwnerID: req.OwnerID,
	}
	if req.Status != nil {
		status := domain.Status(*req.Status)
		in.Status = &status
	}
	l, err := h.svc.Update(r.Context(), orgID, chi.URLParam(r, "leadID"), in)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrTerminal) {
			h.respondErr(w, err)
			return
		}
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(l))
}

// Convert turns the lead into a contact and an opportunity.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var req convertRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.Convert(r.Context(), orgID, chi.URLParam(r, "leadID"), service.ConvertInput{
		OpportunityName: req.OpportunityName,
		ValueCents:      req.ValueCents,
		Currency:        req.Currency,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"lead":           toResponse(res.Lead),
		"contact_id":     res.Contact.ID,
		"opportunity_id": res.Opportunity.ID,
	})
}

// Delete requires manager or admin.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireManager(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	if err := h.svc.Delete(r.Context(), orgID, chi.URLParam(r, "leadID")); err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
