// Package queue implements a visibility-timeout queue over the sync_queue
// table. Claimed rows are invisible until visible_at; a crashed worker's
// claim simply expires and the row is redelivered. Applied rows are kept so
// replayed pushes can be detected by primary key.
package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"fulqrun/backend/internal/sync/domain"
)

// Options configures queue behaviour.
type Options struct {
	// Visibility is how long a claimed change stays invisible. Default: 30s.
	Visibility time.Duration
	// PollInterval is the delay between claim attempts in the Run loop.
	// Default: 1s.
	PollInterval time.Duration
	// MaxAttempts is how many deliveries a change gets before it is marked
	// dead. Default: 3.
	MaxAttempts int
	// RetryDelay is the base backoff after a nack; the actual delay is
	// RetryDelay * attempts. Default: 5s.
	RetryDelay time.Duration
}

func (o *Options) defaults() {
	if o.Visibility <= 0 {
		o.Visibility = 30 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 5 * time.Second
	}
}

// Q is the queue handle.
type Q struct {
	db   *sql.DB
	opts Options
}

func New(db *sql.DB, opts Options) *Q {
	opts.defaults()
	return &Q{db: db, opts: opts}
}

// Publish inserts a change as immediately visible. Returns (false, nil) when
// the change_id was already queued, which makes pushes idempotent.
func (q *Q) Publish(ctx context.Context, c *domain.Change) (bool, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO sync_queue (change_id, org_id, device_id, user_id, entity_type, entity_id, op, payload, client_seq, occurred_at, visible_at, attempts, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $12, $11)
		 ON CONFLICT (change_id) DO NOTHING`,
		c.ChangeID, c.OrgID, c.DeviceID, c.UserID, c.EntityType, c.EntityID, c.Op,
		[]byte(c.Payload), c.ClientSeq, c.OccurredAt, time.Now().UTC(), domain.StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("publish change: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Claim atomically picks the next deliverable change and hides it for the
// visibility window. Changes from one device apply in client_seq order: a
// device's change is deliverable only when it is that device's lowest
// pending sequence. Returns (nil, nil) when nothing is deliverable.
func (q *Q) Claim(ctx context.Context) (*domain.QueuedChange, error) {
	now := time.Now().UTC()
	row := q.db.QueryRowContext(ctx, `
		UPDATE sync_queue
		   SET visible_at = $1, attempts = attempts + 1
		 WHERE change_id = (
			SELECT change_id FROM sync_queue sq
			 WHERE status = $2 AND visible_at <= $3
			   AND client_seq = (
				SELECT MIN(client_seq) FROM sync_queue
				 WHERE device_id = sq.device_id AND status = $2
			   )
			 ORDER BY occurred_at ASC
			 LIMIT 1
			 FOR UPDATE SKIP LOCKED
		 )
		 RETURNING change_id, org_id, device_id, user_id, entity_type, entity_id, op, payload, client_seq, occurred_at, visible_at, attempts, status, created_at`,
		now.Add(q.opts.Visibility), domain.StatusPending, now,
	)
	c, err := scanQueued(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim change: %w", err)
	}
	return c, nil
}

// Ack marks a processed change applied. The row stays for idempotency.
func (q *Q) Ack(ctx context.Context, changeID string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE sync_queue SET status = $2 WHERE change_id = $1`,
		changeID, domain.StatusApplied,
	)
	return err
}

// Nack schedules a failed change for redelivery with linear backoff, or
// marks it dead once attempts are exhausted. Reports whether the change died.
func (q *Q) Nack(ctx context.Context, c *domain.QueuedChange) (dead bool, err error) {
	if c.Attempts >= q.opts.MaxAttempts {
		_, err := q.db.ExecContext(ctx,
			`UPDATE sync_queue SET status = $2 WHERE change_id = $1`,
			c.ChangeID, domain.StatusDead,
		)
		return true, err
	}
	delay := time.Duration(c.Attempts) * q.opts.RetryDelay
	_, err = q.db.ExecContext(ctx,
		`UPDATE sync_queue SET visible_at = $2 WHERE change_id = $1`,
		c.ChangeID, time.Now().UTC().Add(delay),
	)
	return false, err
}

// PendingCount returns the number of changes still waiting to apply.
func (q *Q) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sync_queue WHERE status = $1`, domain.StatusPending,
	).Scan(&n)
	return n, err
}

// Handler processes a claimed change. Return nil to ack, non-nil to nack.
type Handler func(ctx context.Context, c *domain.QueuedChange) error

// DeadHandler is notified when a change exhausts its attempts.
type DeadHandler func(ctx context.Context, c *domain.QueuedChange, cause error)

// Run polls for deliverable changes and applies them with handler. It blocks
// until ctx is cancelled.
func (q *Q) Run(ctx context.Context, handler Handler, onDead DeadHandler) {
	log.Printf("sync queue: consumer started (visibility %s, poll %s, max attempts %d)",
		q.opts.Visibility, q.opts.PollInterval, q.opts.MaxAttempts)

	ticker := time.NewTicker(q.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("sync queue: consumer stopped")
			return
		case <-ticker.C:
			q.poll(ctx, handler, onDead)
		}
	}
}

func (q *Q) poll(ctx context.Context, handler Handler, onDead DeadHandler) {
	for {
		c, err := q.Claim(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("sync queue: claim failed: %v", err)
			}
			return
		}
		if c == nil {
			return // nothing deliverable
		}
		if err := handler(ctx, c); err != nil {
			dead, nackErr := q.Nack(ctx, c)
			if nackErr != nil {
				log.Printf("sync queue: nack %s: %v", c.ChangeID, nackErr)
			}
			if dead {
				log.Printf("sync queue: change %s dead after %d attempts: %v", c.ChangeID, c.Attempts, err)
				if onDead != nil {
					onDead(ctx, c, err)
				}
			} else {
				log.Printf("sync queue: change %s failed (attempt %d), retrying: %v", c.ChangeID, c.Attempts, err)
			}
			continue
		}
		if err := q.Ack(ctx, c.ChangeID); err != nil {
			log.Printf("sync queue: ack %s: %v", c.ChangeID, err)
		}
	}
}

func scanQueued(row interface{ Scan(...any) error }) (*domain.QueuedChange, error) {
	var (
		c       domain.QueuedChange
		payload []byte
	)
	if err := row.Scan(&c.ChangeID, &c.OrgID, &c.DeviceID, &c.UserID, &c.EntityType, &c.EntityID,
		&c.Op, &payload, &c.ClientSeq, &c.OccurredAt, &c.VisibleAt, &c.Attempts, &c.Status, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Payload = payload
	return &c, nil
}
