package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fulqrun/backend/internal/export/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const jobColumns = `id, org_id, requested_by, kind, format, status, payload, error, created_at, finished_at`

func (r *PostgresRepository) Create(ctx context.Context, j *domain.ExportJob) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO export_jobs (id, org_id, requested_by, kind, format, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		j.ID, j.OrgID, j.RequestedBy, j.Kind, j.Format, j.Status, j.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, orgID, id string) (*domain.ExportJob, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM export_jobs WHERE org_id = $1 AND id = $2`,
		orgID, id,
	)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get export job: %w", err)
	}
	return j, nil
}

func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, limit, offset int32) ([]*domain.ExportJob, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM export_jobs
		  WHERE org_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		orgID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list export jobs: %w", err)
	}
	defer rows.Close()

	var out []*domain.ExportJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan export job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) ClaimNext(ctx context.Context) (*domain.ExportJob, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE export_jobs SET status = $1
		 WHERE id = (
			SELECT id FROM export_jobs WHERE status = $2
			 ORDER BY created_at ASC LIMIT 1
			 FOR UPDATE SKIP LOCKED
		 )
		 RETURNING `+jobColumns,
		domain.StatusRunning, domain.StatusPending,
	)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim export job: %w", err)
	}
	return j, nil
}

func (r *PostgresRepository) Complete(ctx context.Context, id string, payload []byte) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE export_jobs SET status = $2, payload = $3, finished_at = $4 WHERE id = $1`,
		id, domain.StatusDone, payload, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("complete export job: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Fail(ctx context.Context, id, errMsg string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE export_jobs SET status = $2, error = $3, finished_at = $4 WHERE id = $1`,
		id, domain.StatusFailed, errMsg, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("fail export job: %w", err)
	}
	return nil
}

func scanJob(row interface{ Scan(...any) error }) (*domain.ExportJob, error) {
	var (
		j        domain.ExportJob
		finished sql.NullTime
	)
	if err := row.Scan(&j.ID, &j.OrgID, &j.RequestedBy, &j.Kind, &j.Format,
		&j.Status, &j.Payload, &j.Error, &j.CreatedAt, &finished); err != nil {
		return nil, err
	}
	if finished.Valid {
		j.FinishedAt = &finished.Time
	}
	return &j, nil
}

var _ Repository = (*PostgresRepository)(nil)
