package repository

import (
	"context"
	"database/sql"
	"errors"

	"fulqrun/backend/internal/organization/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an organization repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the organization for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Org, error) {
	var o domain.Org
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, status, plan, created_at FROM organizations WHERE id = $1`, id).
		Scan(&o.ID, &o.Name, &o.Status, &o.Plan, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// Create persists the organization to the database. The organization must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, o *domain.Org) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO organizations (id, name, status, plan, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		o.ID, o.Name, o.Status, o.Plan, o.CreatedAt)
	return err
}

// Update updates the existing organization record. Returns an error if the update fails.
func (r *PostgresRepository) Update(ctx context.Context, o *domain.Org) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE organizations SET name = $2, status = $3, plan = $4 WHERE id = $1`,
		o.ID, o.Name, o.Status, o.Plan)
	return err
}
