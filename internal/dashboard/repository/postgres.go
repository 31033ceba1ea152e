package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"fulqrun/backend/internal/dashboard/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const dashboardColumns = `id, org_id, user_id, name, widgets, created_at, updated_at`

func (r *PostgresRepository) GetByID(ctx context.Context, orgID, id string) (*domain.Dashboard, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+dashboardColumns+` FROM dashboards WHERE org_id = $1 AND id = $2`,
		orgID, id,
	)
	d, err := scanDashboard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get dashboard: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, orgID, userID string, limit, offset int32) ([]*domain.Dashboard, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+dashboardColumns+` FROM dashboards
		  WHERE org_id = $1 AND user_id = $2
		  ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		orgID, userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list dashboards: %w", err)
	}
	defer rows.Close()

	var out []*domain.Dashboard
	for rows.Next() {
		d, err := scanDashboard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dashboard: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, d *domain.Dashboard) error {
	widgets, err := json.Marshal(d.Widgets)
	if err != nil {
		return fmt.Errorf("marshal widgets: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO dashboards (id, org_id, user_id, name, widgets, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.OrgID, d.UserID, d.Name, widgets, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create dashboard: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, d *domain.Dashboard) error {
	widgets, err := json.Marshal(d.Widgets)
	if err != nil {
		return fmt.Errorf("marshal widgets: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE dashboards SET name = $3, widgets = $4, updated_at = $5
		  WHERE org_id = $1 AND id = $2`,
		d.OrgID, d.ID, d.Name, widgets, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update dashboard: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, orgID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM dashboards WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete dashboard: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanDashboard(row interface{ Scan(...any) error }) (*domain.Dashboard, error) {
	var (
		d       domain.Dashboard
		widgets []byte
	)
	if err := row.Scan(&d.ID, &d.OrgID, &d.UserID, &d.Name, &widgets, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(widgets, &d.Widgets); err != nil {
		return nil, fmt.Errorf("unmarshal widgets: %w", err)
	}
	return &d, nil
}

var _ Repository = (*PostgresRepository)(nil)
