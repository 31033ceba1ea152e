package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"fulqrun/backend/internal/membership/domain"
	"fulqrun/backend/internal/membership/repository"
	"fulqrun/backend/internal/platform/rbac"
	"fulqrun/backend/internal/server/httpx"
	userdomain "fulqrun/backend/internal/user/domain"
)

// UserGetter resolves users when adding members by email.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
}

// Handler exposes org member management endpoints.
type Handler struct {
	members repository.Repository
	users   UserGetter
}

func New(members repository.Repository, users UserGetter) *Handler {
	return &Handler{members: members, users: users}
}

type addMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

type memberResponse struct {
	UserID    string    `json:"user_id"`
	OrgID     string    `json:"org_id"`
	Role      string    `json:"role"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// List returns the org's members. Any member may list.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	limit, offset := httpx.Pagination(r)
	list, err := h.members.ListByOrg(r.Context(), orgID, limit, offset)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	out := make([]memberResponse, 0, len(list))
	for _, m := range list {
		resp := memberResponse{UserID: m.UserID, OrgID: m.OrgID, Role: string(m.Role), CreatedAt: m.CreatedAt}
		if u, err := h.users.GetByID(r.Context(), m.UserID); err == nil && u != nil {
			resp.Email = u.Email
			resp.Name = u.Name
		}
		out = append(out, resp)
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Add attaches an existing user to the org by email. Admin only.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireAdmin(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var req addMemberRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	role := domain.Role(req.Role)
	if role == "" {
		role = domain.RoleRep
	}
	if !role.Valid() {
		httpx.Error(w, http.StatusBadRequest, "invalid role")
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	u, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	if u == nil {
		httpx.Error(w, http.StatusNotFound, "no user with that email")
		return
	}
	existing, err := h.members.GetByUserAndOrg(r.Context(), u.ID, orgID)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	if existing != nil {
		httpx.Error(w, http.StatusConflict, "user is already a member")
		return
	}
	m := &domain.Membership{ID: uuid.New().String(), UserID: u.ID, OrgID: orgID, Role: role, CreatedAt: time.Now().UTC()}
	if err := h.members.Create(r.Context(), m); err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, memberResponse{
		UserID: m.UserID, OrgID: m.OrgID, Role: string(m.Role), Email: u.Email, Name: u.Name, CreatedAt: m.CreatedAt,
	})
}

// ChangeRole sets a member's role. Admin only; the org's last admin cannot be demoted.
func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireAdmin(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	targetID := chi.URLParam(r, "userID")
	var req changeRoleRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	role := domain.Role(req.Role)
	if !role.Valid() {
		httpx.Error(w, http.StatusBadRequest, "invalid role")
		return
	}
	if role != domain.RoleAdmin {
		last, err := h.isLastAdmin(r.Context(), orgID, targetID)
		if err != nil {
			httpx.Internal(w, err)
			return
		}
		if last {
			httpx.Error(w, http.StatusConflict, "cannot demote the last admin")
			return
		}
	}
	if err := h.members.UpdateRole(r.Context(), targetID, orgID, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpx.Error(w, http.StatusNotFound, "member not found")
			return
		}
		httpx.Internal(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"user_id": targetID, "role": string(role)})
}

// Remove detaches a member from the org. Admin only; the last admin cannot be removed.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireAdmin(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	targetID := chi.URLParam(r, "userID")
	last, err := h.isLastAdmin(r.Context(), orgID, targetID)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	if last {
		httpx.Error(w, http.StatusConflict, "cannot remove the last admin")
		return
	}
	if err := h.members.Delete(r.Context(), targetID, orgID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpx.Error(w, http.StatusNotFound, "member not found")
			return
		}
		httpx.Internal(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// isLastAdmin reports whether target is an admin and no other admin exists in the org.
func (h *Handler) isLastAdmin(ctx context.Context, orgID, targetID string) (bool, error) {
	target, err := h.members.GetByUserAndOrg(ctx, targetID, orgID)
	if err != nil {
		return false, err
	}
	if target == nil || target.Role != domain.RoleAdmin {
		return false, nil
	}
	// Page through members looking for another admin.
	var offset int32
	for {
		list, err := h.members.ListByOrg(ctx, orgID, 200, offset)
		if err != nil {
			return false, err
		}
		for _, m := range list {
			if m.Role == domain.RoleAdmin && m.UserID != targetID {
				return false, nil
			}
		}
		if len(list) < 200 {
			return true, nil
		}
		offset += 200
	}
}
