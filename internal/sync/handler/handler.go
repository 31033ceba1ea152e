// Package handler exposes the offline sync endpoints used by mobile clients.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"fulqrun/backend/internal/platform/rbac"
	"fulqrun/backend/internal/server/httpx"
	"fulqrun/backend/internal/sync/domain"
	"fulqrun/backend/internal/sync/service"
)

// Handler serves device registration, change push, and changelog pull.
type Handler struct {
	svc     *service.Service
	members rbac.OrgMembershipGetter
}

func New(svc *service.Service, members rbac.OrgMembershipGetter) *Handler {
	return &Handler{svc: svc, members: members}
}

type registerRequest struct {
	Fingerprint string `json:"fingerprint"`
	Platform    string `json:"platform"`
}

type deviceResponse struct {
	ID         string     `json:"id"`
	Platform   string     `json:"platform,omitempty"`
	Cursor     int64      `json:"cursor"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type pushRequest struct {
	DeviceID string          `json:"device_id"`
	Changes  []domain.Change `json:"changes"`
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrDeviceNotFound):
		httpx.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDeviceOwner):
		httpx.Error(w, http.StatusForbidden, err.Error())
	default:
		httpx.Internal(w, err)
	}
}

// RegisterDevice handles POST /api/v1/sync/devices.
func (h *Handler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	orgID, userID, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var req registerRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := h.svc.RegisterDevice(r.Context(), orgID, userID, req.Fingerprint, req.Platform)
	if err != nil {
		if errors.Is(err, service.ErrDeviceNotFound) || errors.Is(err, service.ErrDeviceOwner) {
			h.respondErr(w, err)
			return
		}
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, deviceResponse{
		ID:         d.ID,
		Platform:   d.Platform,
		Cursor:     d.Cursor,
		LastSyncAt: d.LastSyncAt,
		CreatedAt:  d.CreatedAt,
	})
}

// Push handles POST /api/v1/sync/push.
func (h *Handler) Push(w http.ResponseWriter, r *http.Request) {
	orgID, userID, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var req pushRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.DeviceID == "" {
		httpx.Error(w, http.StatusBadRequest, "device_id is required")
		return
	}
	res, err := h.svc.Push(r.Context(), orgID, userID, req.DeviceID, req.Changes)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

// Pull handles GET /api/v1/sync/changes?device_id=&cursor=&limit=.
func (h *Handler) Pull(w http.ResponseWriter, r *http.Request) {
	orgID, userID, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	deviceID := r.URL.Query().Get("device_id")
	if deviceID == "" {
		httpx.Error(w, http.StatusBadRequest, "device_id is required")
		return
	}
	var cursor *int64
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			httpx.Error(w, http.StatusBadRequest, "cursor must be a non-negative integer")
			return
		}
		cursor = &v
	}
	var limit int32
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || v <= 0 {
			httpx.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = int32(v)
	}
	res, err := h.svc.Pull(r.Context(), orgID, userID, deviceID, cursor, limit)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
