package handler

import (
	"net/http"
	"time"

	"fulqrun/backend/internal/kpi/domain"
	"fulqrun/backend/internal/kpi/repository"
	"fulqrun/backend/internal/kpi/service"
	"fulqrun/backend/internal/platform/rbac"
	"fulqrun/backend/internal/server/httpx"
)

// Handler serves pharma KPI ingest and the BI summary.
type Handler struct {
	svc     *service.Service
	members rbac.OrgMembershipGetter
}

func New(svc *service.Service, members rbac.OrgMembershipGetter) *Handler {
	return &Handler{svc: svc, members: members}
}

type ingestRequest struct {
	Territory      string    `json:"territory"`
	Product        string    `json:"product"`
	Period         time.Time `json:"period"`
	TRx            int       `json:"trx"`
	NRx            int       `json:"nrx"`
	MarketShareBP  int       `json:"market_share_bp"`
	CallsMade      int       `json:"calls_made"`
	SamplesDropped int       `json:"samples_dropped"`
}

type kpiResponse struct {
	ID             string    `json:"id"`
	Territory      string    `json:"territory"`
	Product        string    `json:"product"`
	Period         time.Time `json:"period"`
	TRx            int       `json:"trx"`
	NRx            int       `json:"nrx"`
	MarketShareBP  int       `json:"market_share_bp"`
	CallsMade      int       `json:"calls_made"`
	SamplesDropped int       `json:"samples_dropped"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toResponse(k *domain.PharmaKPI) kpiResponse {
	return kpiResponse{
		ID:             k.ID,
		Territory:      k.Territory,
		Product:        k.Product,
		Period:         k.Period,
		TRx:            k.TRx,
		NRx:            k.NRx,
		MarketShareBP:  k.MarketShareBP,
		CallsMade:      k.CallsMade,
		SamplesDropped: k.SamplesDropped,
		UpdatedAt:      k.UpdatedAt,
	}
}

// Ingest handles POST /api/v1/kpis/pharma. Managers and admins report KPIs.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireManager(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var req ingestRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	k, err := h.svc.Ingest(r.Context(), orgID, service.IngestInput{
		Territory:      req.Territory,
		Product:        req.Product,
		Period:         req.Period,
		TRx:            req.TRx,
		NRx:            req.NRx,
		MarketShareBP:  req.MarketShareBP,
		CallsMade:      req.CallsMade,
		SamplesDropped: req.SamplesDropped,
	})
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(k))
}

// List handles GET /api/v1/kpis/pharma?territory=&product=&from=&to=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	var f repository.Filter
	q := r.URL.Query()
	if v := q.Get("territory"); v != "" {
		f.Territory = &v
	}
	if v := q.Get("product"); v != "" {
		f.Product = &v
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Error(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Error(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		f.To = &t
	}
	limit, offset := httpx.Pagination(r)
	kpis, err := h.svc.List(r.Context(), orgID, f, limit, offset)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	out := make([]kpiResponse, 0, len(kpis))
	for _, k := range kpis {
		out = append(out, toResponse(k))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"kpis": out})
}

// Summary handles GET /api/v1/kpis/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	orgID, _, err := rbac.RequireMember(r.Context(), h.members)
	if err != nil {
		httpx.Error(w, rbac.StatusFor(err), err.Error())
		return
	}
	s, err := h.svc.Summary(r.Context(), orgID)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}
