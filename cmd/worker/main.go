// Worker runs the background loops: the offline-sync apply queue, the export
// job runner, and (when Kafka is configured) the connector dispatch consumer.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"fulqrun/backend/internal/audit"
	auditrepo "fulqrun/backend/internal/audit/repository"
	"fulqrun/backend/internal/config"
	"fulqrun/backend/internal/connector/dispatch"
	connectorrepo "fulqrun/backend/internal/connector/repository"
	contactrepo "fulqrun/backend/internal/contact/repository"
	"fulqrun/backend/internal/db"
	"fulqrun/backend/internal/event"
	exportrepo "fulqrun/backend/internal/export/repository"
	exportsvc "fulqrun/backend/internal/export/service"
	kpirepo "fulqrun/backend/internal/kpi/repository"
	leadrepo "fulqrun/backend/internal/lead/repository"
	opportunityrepo "fulqrun/backend/internal/opportunity/repository"
	"fulqrun/backend/internal/sync/queue"
	syncrepo "fulqrun/backend/internal/sync/repository"
	syncsvc "fulqrun/backend/internal/sync/service"
	"fulqrun/backend/internal/telemetry/otel"
)

const dispatchTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("worker: shutting down...")
		cancel()
	}()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "fulqrun-worker", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}

	publisher := event.Fanout{otel.NewEventPublisher(providers.LoggerProvider)}
	kafkaPub, err := event.NewKafkaPublisher(cfg.EventKafkaBrokersList(), cfg.EventKafkaTopic)
	if err != nil {
		log.Fatalf("kafka publisher: %v", err)
	}
	if kafkaPub != nil {
		publisher = append(publisher, kafkaPub)
	}

	leads := leadrepo.NewPostgresRepository(sqlDB)
	contacts := contactrepo.NewPostgresRepository(sqlDB)
	opps := opportunityrepo.NewPostgresRepository(sqlDB)
	kpis := kpirepo.NewPostgresRepository(sqlDB)
	exports := exportrepo.NewPostgresRepository(sqlDB)
	changelog := syncrepo.NewPostgresChangelogRepository(sqlDB)
	connectors := connectorrepo.NewPostgresRepository(sqlDB)
	auditor := audit.NewLogger(auditrepo.NewPostgresRepository(sqlDB), nil)

	applier := syncsvc.NewApplier(leads, contacts, opps, changelog, auditor)
	syncQueue := queue.New(sqlDB, queue.Options{
		Visibility:  cfg.SyncVisibilityDuration(),
		MaxAttempts: cfg.SyncMaxAttempts,
		RetryDelay:  cfg.SyncRetryDelayDuration(),
	})

	exporter := exportsvc.NewExporter(leads, opps, kpis)
	exportRunner := exportsvc.NewRunner(exports, exporter, publisher, 0)

	consumer := dispatch.NewConsumer(
		cfg.EventKafkaBrokersList(), cfg.EventKafkaTopic, cfg.KafkaGroupID,
		connectors, dispatch.NewDispatcher(dispatchTimeout),
	)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Println("worker: sync apply loop started")
		syncQueue.Run(ctx, applier.Apply, applier.DeadLetter)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Println("worker: export runner started")
		exportRunner.Run(ctx)
	}()

	if consumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Println("worker: connector dispatch started")
			consumer.Run(ctx)
		}()
	}

	wg.Wait()

	if consumer != nil {
		if err := consumer.Close(); err != nil {
			log.Printf("worker: consumer close: %v", err)
		}
	}
	if err := publisher.Close(); err != nil {
		log.Printf("worker: events: %v", err)
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("worker: otel shutdown: %v", err)
	}
	log.Println("worker: stopped")
}
