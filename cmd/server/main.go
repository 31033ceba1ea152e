package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	audithandler "fulqrun/backend/internal/audit/handler"
	auditrepo "fulqrun/backend/internal/audit/repository"
	"fulqrun/backend/internal/config"
	connectorhandler "fulqrun/backend/internal/connector/handler"
	connectorrepo "fulqrun/backend/internal/connector/repository"
	connectorsvc "fulqrun/backend/internal/connector/service"
	contacthandler "fulqrun/backend/internal/contact/handler"
	contactrepo "fulqrun/backend/internal/contact/repository"
	dashboardhandler "fulqrun/backend/internal/dashboard/handler"
	dashboardrepo "fulqrun/backend/internal/dashboard/repository"
	dashboardsvc "fulqrun/backend/internal/dashboard/service"
	"fulqrun/backend/internal/db"
	"fulqrun/backend/internal/event"
	exporthandler "fulqrun/backend/internal/export/handler"
	exportrepo "fulqrun/backend/internal/export/repository"
	exportsvc "fulqrun/backend/internal/export/service"
	"fulqrun/backend/internal/health"
	identityhandler "fulqrun/backend/internal/identity/handler"
	identityrepo "fulqrun/backend/internal/identity/repository"
	identitysvc "fulqrun/backend/internal/identity/service"
	kpihandler "fulqrun/backend/internal/kpi/handler"
	kpirepo "fulqrun/backend/internal/kpi/repository"
	kpisvc "fulqrun/backend/internal/kpi/service"
	leadhandler "fulqrun/backend/internal/lead/handler"
	leadrepo "fulqrun/backend/internal/lead/repository"
	leadsvc "fulqrun/backend/internal/lead/service"
	membershiphandler "fulqrun/backend/internal/membership/handler"
	membershiprepo "fulqrun/backend/internal/membership/repository"
	opportunityhandler "fulqrun/backend/internal/opportunity/handler"
	opportunityrepo "fulqrun/backend/internal/opportunity/repository"
	opportunitysvc "fulqrun/backend/internal/opportunity/service"
	organizationhandler "fulqrun/backend/internal/organization/handler"
	organizationrepo "fulqrun/backend/internal/organization/repository"
	"fulqrun/backend/internal/policy/engine"
	policyhandler "fulqrun/backend/internal/policy/handler"
	policyrepo "fulqrun/backend/internal/policy/repository"
	quotahandler "fulqrun/backend/internal/quota/handler"
	quotarepo "fulqrun/backend/internal/quota/repository"
	quotasvc "fulqrun/backend/internal/quota/service"
	scoringhandler "fulqrun/backend/internal/scoring/handler"
	scoringrepo "fulqrun/backend/internal/scoring/repository"
	scoringsvc "fulqrun/backend/internal/scoring/service"
	"fulqrun/backend/internal/security"
	"fulqrun/backend/internal/server"
	sessionrepo "fulqrun/backend/internal/session/repository"
	synchandler "fulqrun/backend/internal/sync/handler"
	"fulqrun/backend/internal/sync/queue"
	syncrepo "fulqrun/backend/internal/sync/repository"
	syncsvc "fulqrun/backend/internal/sync/service"
	"fulqrun/backend/internal/telemetry/otel"
	userrepo "fulqrun/backend/internal/user/repository"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer sqlDB.Close()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "fulqrun-server", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}

	privKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("jwt private key: %v", err)
	}
	pubKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("jwt public key: %v", err)
	}
	tokens := security.NewTokenProvider(privKey, pubKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	// Domain events fan out to OTel log records and, when brokers are
	// configured, to Kafka for the connector worker.
	publisher := event.Fanout{otel.NewEventPublisher(providers.LoggerProvider)}
	kafkaPub, err := event.NewKafkaPublisher(cfg.EventKafkaBrokersList(), cfg.EventKafkaTopic)
	if err != nil {
		log.Fatalf("kafka publisher: %v", err)
	}
	if kafkaPub != nil {
		publisher = append(publisher, kafkaPub)
	}

	users := userrepo.NewPostgresRepository(sqlDB)
	identities := identityrepo.NewPostgresRepository(sqlDB)
	sessions := sessionrepo.NewPostgresRepository(sqlDB)
	members := membershiprepo.NewPostgresRepository(sqlDB)
	orgs := organizationrepo.NewPostgresRepository(sqlDB)
	leads := leadrepo.NewPostgresRepository(sqlDB)
	contacts := contactrepo.NewPostgresRepository(sqlDB)
	opps := opportunityrepo.NewPostgresRepository(sqlDB)
	assessments := scoringrepo.NewPostgresAssessmentRepository(sqlDB)
	scoringConfigs := scoringrepo.NewPostgresConfigRepository(sqlDB)
	kpis := kpirepo.NewPostgresRepository(sqlDB)
	quotas := quotarepo.NewPostgresRepository(sqlDB)
	dashboards := dashboardrepo.NewPostgresRepository(sqlDB)
	exports := exportrepo.NewPostgresRepository(sqlDB)
	devices := syncrepo.NewPostgresDeviceRepository(sqlDB)
	changelog := syncrepo.NewPostgresChangelogRepository(sqlDB)
	connectors := connectorrepo.NewPostgresRepository(sqlDB)
	policies := policyrepo.NewPostgresRepository(sqlDB)
	audits := auditrepo.NewPostgresRepository(sqlDB)

	evaluator := engine.NewOPAEvaluator(policies)

	authSvc := identitysvc.NewAuthService(users, identities, sessions, members, hasher, tokens, cfg.AccessTTL(), cfg.RefreshTTL())
	leadSvc := leadsvc.New(leads, publisher, changelog)
	oppSvc := opportunitysvc.New(opps, publisher, changelog)
	scoringSvc := scoringsvc.New(assessments, scoringConfigs, opps)
	kpiSvc := kpisvc.New(kpis)
	quotaSvc := quotasvc.New(quotas)
	dashboardSvc := dashboardsvc.New(dashboards, dashboardsvc.DefaultSources(kpiSvc, quotaSvc, leadSvc, oppSvc))
	exportSvc := exportsvc.New(exports)
	connectorSvc := connectorsvc.New(connectors)

	syncQueue := queue.New(sqlDB, queue.Options{
		Visibility:  cfg.SyncVisibilityDuration(),
		MaxAttempts: cfg.SyncMaxAttempts,
		RetryDelay:  cfg.SyncRetryDelayDuration(),
	})
	syncSvc := syncsvc.New(devices, changelog, syncQueue, int32(cfg.SyncPullLimit))

	handlers := server.Handlers{
		Identity:      identityhandler.New(authSvc),
		Organizations: organizationhandler.New(orgs, members),
		Members:       membershiphandler.New(members, users),
		Leads:         leadhandler.New(leadSvc, members),
		Contacts:      contacthandler.New(contacts, members, changelog),
		Opportunities: opportunityhandler.New(oppSvc, members),
		Scoring:       scoringhandler.New(scoringSvc, members),
		KPIs:          kpihandler.New(kpiSvc, members),
		Quotas:        quotahandler.New(quotaSvc, members),
		Dashboards:    dashboardhandler.New(dashboardSvc, members),
		Exports:       exporthandler.New(exportSvc, members),
		Sync:          synchandler.New(syncSvc, members),
		Connectors:    connectorhandler.New(connectorSvc, members),
		Policies:      policyhandler.New(policies, evaluator, members),
		Audit:         audithandler.New(audits, members),
		Health:        health.New(sqlDB, evaluator),
	}

	router := server.NewRouter(handlers, server.Deps{
		Tokens:    tokens,
		AuditRepo: audits,
		Evaluator: evaluator,
		Tracer:    providers.TracerProvider.Tracer("fulqrun/http"),
		Meter:     providers.MeterProvider.Meter("fulqrun/http"),
		Events:    publisher,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	// Give in-flight async event publishes a grace period before the
	// publisher and exporters close under them.
	time.Sleep(event.ShutdownDrainDuration)
	if err := publisher.Close(); err != nil {
		log.Printf("events: %v", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("otel shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
