package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fulqrun/backend/internal/quota/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const quotaColumns = `id, org_id, user_id, period_start, period_end, target_cents, created_at, updated_at`

func (r *PostgresRepository) GetByID(ctx context.Context, orgID, id string) (*domain.QuotaPlan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+quotaColumns+` FROM quota_plans WHERE org_id = $1 AND id = $2`,
		orgID, id,
	)
	q, err := scanQuota(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get quota plan: %w", err)
	}
	return q, nil
}

func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, userID *string, limit, offset int32) ([]*domain.QuotaPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+quotaColumns+` FROM quota_plans
		  WHERE org_id = $1 AND ($2::text IS NULL OR user_id = $2)
		  ORDER BY period_start DESC LIMIT $3 OFFSET $4`,
		orgID, userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list quota plans: %w", err)
	}
	defer rows.Close()

	var out []*domain.QuotaPlan
	for rows.Next() {
		q, err := scanQuota(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quota plan: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, q *domain.QuotaPlan) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO quota_plans (id, org_id, user_id, period_start, period_end, target_cents, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		q.ID, q.OrgID, q.UserID, q.PeriodStart, q.PeriodEnd, q.TargetCents, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create quota plan: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, q *domain.QuotaPlan) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE quota_plans
		    SET user_id = $3, period_start = $4, period_end = $5, target_cents = $6, updated_at = $7
		  WHERE org_id = $1 AND id = $2`,
		q.OrgID, q.ID, q.UserID, q.PeriodStart, q.PeriodEnd, q.TargetCents, q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update quota plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, orgID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM quota_plans WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete quota plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresRepository) WonValueCents(ctx context.Context, orgID, userID string, from, to time.Time) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(value_cents), 0) FROM opportunities
		  WHERE org_id = $1 AND owner_id = $2 AND status = 'won'
		    AND closed_at >= $3 AND closed_at < $4`,
		orgID, userID, from, to,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("won value: %w", err)
	}
	return total, nil
}

func scanQuota(row interface{ Scan(...any) error }) (*domain.QuotaPlan, error) {
	var q domain.QuotaPlan
	if err := row.Scan(&q.ID, &q.OrgID, &q.UserID, &q.PeriodStart, &q.PeriodEnd,
		&q.TargetCents, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	return &q, nil
}

var _ Repository = (*PostgresRepository)(nil)
