package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"fulqrun/backend/internal/event"
	"fulqrun/backend/internal/export/domain"
	"fulqrun/backend/internal/export/repository"
)

// Runner is the worker-side loop: it claims pending jobs, generates the
// payload, and stores the result. One claimed job is never retried; a
// generation error marks it failed for the requester to re-submit.
type Runner struct {
	repo     repository.Repository
	exporter *Exporter
	events   event.Publisher
	poll     time.Duration
}

func NewRunner(repo repository.Repository, exporter *Exporter, events event.Publisher, poll time.Duration) *Runner {
	if poll <= 0 {
		poll = 2 * time.Second
	}
	return &Runner{repo: repo, exporter: exporter, events: events, poll: poll}
}

// Run blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	log.Printf("export runner: started (poll %s)", r.poll)
	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("export runner: stopped")
			return
		case <-ticker.C:
			r.drain(ctx)
		}
	}
}

func (r *Runner) drain(ctx context.Context) {
	for {
		j, err := r.repo.ClaimNext(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("export runner: claim failed: %v", err)
			}
			return
		}
		if j == nil {
			return
		}
		r.process(ctx, j)
	}
}

func (r *Runner) process(ctx context.Context, j *domain.ExportJob) {
	payload, err := r.exporter.Export(ctx, j)
	if err != nil {
		log.Printf("export runner: job %s (%s) failed: %v", j.ID, j.Kind, err)
		if failErr := r.repo.Fail(ctx, j.ID, err.Error()); failErr != nil {
			log.Printf("export runner: mark failed %s: %v", j.ID, failErr)
		}
		return
	}
	if err := r.repo.Complete(ctx, j.ID, payload); err != nil {
		log.Printf("export runner: complete %s: %v", j.ID, err)
		return
	}
	log.Printf("export runner: job %s (%s) done, %d bytes", j.ID, j.Kind, len(payload))

	meta, _ := json.Marshal(map[string]any{"job_id": j.ID, "kind": j.Kind, "bytes": len(payload)})
	event.PublishAsync(r.events, &event.Event{
		OrgID:     j.OrgID,
		UserID:    j.RequestedBy,
		Type:      event.TypeExportCompleted,
		Source:    "worker",
		Metadata:  meta,
		CreatedAt: time.Now().UTC(),
	})
}
