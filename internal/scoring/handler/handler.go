package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fulqrun/backend/internal/platform/rbac"
	"fulqrun/backend/internal/scoring/domain"
	"fulqrun/backend/internal/scoring/service"
	"fulqrun/backend/internal/server/httpx"
)

// Handler exposes MEDDPICC assessment and scoring-config endpoints.
type Handler struct {
	svc     *service.Service
	members rbac.OrgMembershipGetter
}

func New(svc *service.Service, members rbac.OrgMembershipGetter) *Handler {
	return &Handler{svc: svc, members: members}
}

type submitRequest struct {
	Answers map[string]string `json:"answers"`
}

type assessmentResponse struct {
	ID            string           `json:"id"`
	OpportunityID string           `json:"opportunity_id"`
	Answers       domain.Answers   `json:"answers"`
	Breakdown     domain.Breakdown `json:"breakdown"`
	Score         int              `json:"score"`
	Band          string           `json:"band"`
	AssessedBy    string           `json:"assessed_by"`
	CreatedAt     time.Time        `json:"created_at"`
}

func toAssessmentResponse(a *domain.Assessment) assessmentResponse {
	return assessmentResponse{
		ID:            a.ID,
		OpportunityID: a.OpportunityID,
		Answers:       a.Answers,
		Breakdown:     a.Breakdown,
		Score:         a.Score,
		Band:          string(a.Band),
		AssessedBy:    a.AssessedBy,
		CreatedAt:     a.CreatedAt,
	}
}

// Submit scores a MEDDPICC questionnaire for an opportunity.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	orgID, userID, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var req submitRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	answers := make(domain.Answers, len(req.Answers))
	for k, v := range req.Answers {
		answers[domain.Pillar(k)] = v
	}
	a, err := h.svc.Submit(r.Context(), orgID, chi.URLParam(r, "oppID"), userID, answers)
	if err != nil {
		if errors.Is(err, service.ErrOpportunityNotFound) {
			httpx.Error(w, http.StatusNotFound, err.Error())
			return
		}
		httpx.Internal(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAssessmentResponse(a))
}

// Latest returns the opportunity's newest assessment.
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	a, err := h.svc.Latest(r.Context(), orgID, chi.URLParam(r, "oppID"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOpportunityNotFound), errors.Is(err, service.ErrNoAssessment):
			httpx.Error(w, http.StatusNotFound, err.Error())
		default:
			httpx.Internal(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, toAssessmentResponse(a))
}

// GetConfig returns the org's scoring config (defaults when uncustomized). Manager or admin.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireManager(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	cfg, err := h.svc.ConfigFor(r.Context(), orgID)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cfg)
}

// PutConfig replaces the org's scoring config. Manager or admin.
func (h *Handler) PutConfig(w http.ResponseWriter, r *http.Request) {
	orgID, userID, err := rbac.RequireManager(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var cfg domain.Config
	if err := httpx.Decode(r, &cfg); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.PutConfig(r.Context(), orgID, &cfg, userID); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, cfg)
}
