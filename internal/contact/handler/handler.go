package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"fulqrun/backend/internal/contact/domain"
	"fulqrun/backend/internal/contact/repository"
	"fulqrun/backend/internal/platform/rbac"
	"fulqrun/backend/internal/server/httpx"
)

// ChangeRecorder appends entity mutations to the sync changelog.
type ChangeRecorder interface {
	RecordChange(ctx context.Context, orgID, entityType, entityID, op string, payload any) error
}

// Handler exposes contact CRUD with prefix search. Contacts carry no business
// rules beyond validation, so there is no service layer.
type Handler struct {
	repo      repository.Repository
	members   rbac.OrgMembershipGetter
	changelog ChangeRecorder
}

func New(repo repository.Repository, members rbac.OrgMembershipGetter, changelog ChangeRecorder) *Handler {
	return &Handler{repo: repo, members: members, changelog: changelog}
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Title   string `json:"title"`
	Company string `json:"company"`
}

type contactResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Title     string    `json:"title,omitempty"`
	Company   string    `json:"company,omitempty"`
	LeadID    string    `json:"lead_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toResponse(c *domain.Contact) contactResponse {
	return contactResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Title:     c.Title,
		Company:   c.Company,
		LeadID:    c.LeadID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (h *Handler) record(ctx context.Context, c *domain.Contact, op string) {
	if h.changelog == nil {
		return
	}
	if err := h.changelog.RecordChange(ctx, c.OrgID, "contact", c.ID, op, c); err != nil {
		log.Printf("contact: record change: %v", err)
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var req contactRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	now := time.Now().UTC()
	c := &domain.Contact{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		Name:      strings.TrimSpace(req.Name),
		Email:     req.Email,
		Phone:     req.Phone,
		Title:     req.Title,
		Company:   req.Company,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.Validate(); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.Create(r.Context(), c); err != nil {
		httpx.Internal(w, err)
		return
	}
	h.record(r.Context(), c, "create")
	httpx.JSON(w, http.StatusCreated, toResponse(c))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	c, err := h.repo.GetByID(r.Context(), orgID, chi.URLParam(r, "contactID"))
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	if c == nil {
		httpx.Error(w, http.StatusNotFound, "contact not found")
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(c))
}

// List supports ?q= prefix search over name, email, and company.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	limit, offset := httpx.Pagination(r)
	list, err := h.repo.ListByOrg(r.Context(), orgID, strings.TrimSpace(r.URL.Query().Get("q")), limit, offset)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	out := make([]contactResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toResponse(c))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	c, err := h.repo.GetByID(r.Context(), orgID, chi.URLParam(r, "contactID"))
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	if c == nil {
		httpx.Error(w, http.StatusNotFound, "contact not found")
		return
	}
	var req contactRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		c.Name = name
	}
	c.Email = req.Email
	c.Phone = req.Phone
	c.Title = req.Title
	c.Company = req.Company
	c.UpdatedAt = time.Now().UTC()
	if err := c.Validate(); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.Update(r.Context(), c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpx.Error(w, http.StatusNotFound, "contact not found")
			return
		}
		httpx.Internal(w, err)
		return
	}
	h.record(r.Context(), c, "update")
	httpx.JSON(w, http.StatusOK, toResponse(c))
}

// Delete requires manager or admin.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireManager(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	id := chi.URLParam(r, "contactID")
	c, err := h.repo.GetByID(r.Context(), orgID, id)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	if c == nil {
		httpx.Error(w, http.StatusNotFound, "contact not found")
		return
	}
	if err := h.repo.Delete(r.Context(), orgID, id); err != nil {
		httpx.Internal(w, err)
		return
	}
	h.record(r.Context(), c, "delete")
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
