// Package server assembles the HTTP router: chi mux, middleware chain, and
// the per-feature route tree.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	otelmetric "go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"

	audithandler "fulqrun/backend/internal/audit/handler"
	auditrepo "fulqrun/backend/internal/audit/repository"
	connectorhandler "fulqrun/backend/internal/connector/handler"
	contacthandler "fulqrun/backend/internal/contact/handler"
	dashboardhandler "fulqrun/backend/internal/dashboard/handler"
	"fulqrun/backend/internal/event"
	exporthandler "fulqrun/backend/internal/export/handler"
	"fulqrun/backend/internal/health"
	identityhandler "fulqrun/backend/internal/identity/handler"
	kpihandler "fulqrun/backend/internal/kpi/handler"
	leadhandler "fulqrun/backend/internal/lead/handler"
	membershiphandler "fulqrun/backend/internal/membership/handler"
	opportunityhandler "fulqrun/backend/internal/opportunity/handler"
	organizationhandler "fulqrun/backend/internal/organization/handler"
	"fulqrun/backend/internal/policy/engine"
	policyhandler "fulqrun/backend/internal/policy/handler"
	quotahandler "fulqrun/backend/internal/quota/handler"
	scoringhandler "fulqrun/backend/internal/scoring/handler"
	"fulqrun/backend/internal/security"
	"fulqrun/backend/internal/server/middleware"
	synchandler "fulqrun/backend/internal/sync/handler"
)

// Handlers collects the per-feature HTTP handlers wired by cmd/server.
type Handlers struct {
	Identity      *identityhandler.Handler
	Organizations *organizationhandler.Handler
	Members       *membershiphandler.Handler
	Leads         *leadhandler.Handler
	Contacts      *contacthandler.Handler
	Opportunities *opportunityhandler.Handler
	Scoring       *scoringhandler.Handler
	KPIs          *kpihandler.Handler
	Quotas        *quotahandler.Handler
	Dashboards    *dashboardhandler.Handler
	Exports       *exporthandler.Handler
	Sync          *synchandler.Handler
	Connectors    *connectorhandler.Handler
	Policies      *policyhandler.Handler
	Audit         *audithandler.Handler
	Health        *health.Handler
}

// Deps carries the cross-cutting pieces the middleware chain needs.
type Deps struct {
	Tokens    *security.TokenProvider
	AuditRepo auditrepo.Repository
	Evaluator engine.Evaluator
	Tracer    oteltrace.Tracer
	Meter     otelmetric.Meter
	Events    event.Publisher
}

// NewRouter builds the full route tree. Auth runs before audit and telemetry
// so both see the resolved identity; /healthz and the auth endpoints stay
// public.
func NewRouter(h Handlers, deps Deps) *chi.Mux {
	publicPaths := map[string]bool{
		"/healthz":              true,
		"/api/v1/auth/register": true,
		"/api/v1/auth/login":    true,
		"/api/v1/auth/refresh":  true,
		"/api/v1/auth/logout":   true,
	}
	skipPaths := map[string]bool{
		"/healthz": true,
	}

	policy := func(action, resource string) func(http.Handler) http.Handler {
		return middleware.Policy(deps.Evaluator, action, resource)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Auth(deps.Tokens, publicPaths))
	r.Use(middleware.Telemetry(deps.Tracer, deps.Meter, deps.Events, skipPaths))
	r.Use(middleware.Audit(deps.AuditRepo, skipPaths))

	r.Get("/healthz", h.Health.Check)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Identity.Register)
			r.Post("/login", h.Identity.Login)
			r.Post("/refresh", h.Identity.Refresh)
			r.Post("/logout", h.Identity.Logout)
		})

		r.Route("/orgs", func(r chi.Router) {
			r.Post("/", h.Organizations.Create)
			r.Route("/{orgID}", func(r chi.Router) {
				r.Get("/", h.Organizations.Get)
				r.With(policy("org.update", "organization")).Put("/", h.Organizations.Update)
				r.With(policy("org.suspend", "organization")).Post("/suspend", h.Organizations.Suspend)
			})
		})

		r.Route("/members", func(r chi.Router) {
			r.Get("/", h.Members.List)
			r.With(policy("member.add", "user")).Post("/", h.Members.Add)
			r.With(policy("member.change_role", "user")).Put("/{userID}", h.Members.ChangeRole)
			r.With(policy("member.remove", "user")).Delete("/{userID}", h.Members.Remove)
		})

		r.Route("/leads", func(r chi.Router) {
			r.Post("/", h.Leads.Create)
			r.Get("/", h.Leads.List)
			r.Route("/{leadID}", func(r chi.Router) {
				r.Get("/", h.Leads.Get)
				r.Put("/", h.Leads.Update)
				r.Delete("/", h.Leads.Delete)
				r.Post("/convert", h.Leads.Convert)
			})
		})

		r.Route("/contacts", func(r chi.Router) {
			r.Post("/", h.Contacts.Create)
			r.Get("/", h.Contacts.List)
			r.Route("/{contactID}", func(r chi.Router) {
				r.Get("/", h.Contacts.Get)
				r.Put("/", h.Contacts.Update)
				r.Delete("/", h.Contacts.Delete)
			})
		})

		r.Route("/opportunities", func(r chi.Router) {
			r.Post("/", h.Opportunities.Create)
			r.Get("/", h.Opportunities.List)
			r.Route("/{oppID}", func(r chi.Router) {
				r.Get("/", h.Opportunities.Get)
				r.Put("/", h.Opportunities.Update)
				r.Delete("/", h.Opportunities.Delete)
				r.Put("/stage", h.Opportunities.ChangeStage)
				r.Post("/close", h.Opportunities.Close)
				r.Put("/meddpicc", h.Scoring.Submit)
				r.Get("/meddpicc", h.Scoring.Latest)
			})
		})

		r.Route("/scoring/config", func(r chi.Router) {
			r.Get("/", h.Scoring.GetConfig)
			r.Put("/", h.Scoring.PutConfig)
		})

		r.Route("/kpis", func(r chi.Router) {
			r.Post("/pharma", h.KPIs.Ingest)
			r.Get("/pharma", h.KPIs.List)
			r.Get("/summary", h.KPIs.Summary)
		})

		r.Route("/quotas", func(r chi.Router) {
			r.Post("/", h.Quotas.Create)
			r.Get("/", h.Quotas.List)
			r.Route("/{quotaID}", func(r chi.Router) {
				r.Get("/", h.Quotas.Get)
				r.Put("/", h.Quotas.Update)
				r.Delete("/", h.Quotas.Delete)
				r.Get("/attainment", h.Quotas.Attainment)
			})
		})

		r.Route("/dashboards", func(r chi.Router) {
			r.Post("/", h.Dashboards.Create)
			r.Get("/", h.Dashboards.List)
			r.Route("/{dashboardID}", func(r chi.Router) {
				r.Get("/", h.Dashboards.Get)
				r.Put("/", h.Dashboards.Update)
				r.Delete("/", h.Dashboards.Delete)
				r.Get("/data", h.Dashboards.Data)
			})
		})

		r.Route("/exports", func(r chi.Router) {
			r.Post("/", h.Exports.Create)
			r.Get("/", h.Exports.List)
			r.Route("/{exportID}", func(r chi.Router) {
				r.Get("/", h.Exports.Get)
				r.Get("/download", h.Exports.Download)
			})
		})

		r.Route("/sync", func(r chi.Router) {
			r.Post("/devices", h.Sync.RegisterDevice)
			r.Post("/push", h.Sync.Push)
			r.Get("/changes", h.Sync.Pull)
		})

		r.Route("/connectors", func(r chi.Router) {
			r.With(policy("connector.create", "connector")).Post("/", h.Connectors.Create)
			r.Get("/", h.Connectors.List)
			r.Route("/{connectorID}", func(r chi.Router) {
				r.Get("/", h.Connectors.Get)
				r.With(policy("connector.update", "connector")).Put("/", h.Connectors.Update)
				r.With(policy("connector.delete", "connector")).Delete("/", h.Connectors.Delete)
			})
		})

		r.Route("/policies", func(r chi.Router) {
			r.Get("/", h.Policies.List)
			r.With(policy("policy.write", "policy")).Post("/", h.Policies.Create)
			r.With(policy("policy.write", "policy")).Put("/{policyID}", h.Policies.Update)
			r.With(policy("policy.write", "policy")).Delete("/{policyID}", h.Policies.Delete)
			r.Post("/evaluate", h.Policies.Evaluate)
		})

		r.Get("/audit", h.Audit.List)
	})

	return r
}
