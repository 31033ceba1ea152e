package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"fulqrun/backend/internal/connector/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const connectorColumns = `id, org_id, kind, name, config, enabled, created_at, updated_at`

func (r *PostgresRepository) GetByID(ctx context.Context, orgID, id string) (*domain.Connector, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+connectorColumns+` FROM connectors WHERE org_id = $1 AND id = $2`,
		orgID, id,
	)
	c, err := scanConnector(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get connector: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, limit, offset int32) ([]*domain.Connector, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+connectorColumns+` FROM connectors
		  WHERE org_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		orgID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list connectors: %w", err)
	}
	return collect(rows)
}

func (r *PostgresRepository) ListEnabledByOrg(ctx context.Context, orgID string) ([]*domain.Connector, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+connectorColumns+` FROM connectors WHERE org_id = $1 AND enabled`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("list enabled connectors: %w", err)
	}
	return collect(rows)
}

func (r *PostgresRepository) Create(ctx context.Context, c *domain.Connector) error {
	cfg, err := json.Marshal(c.Config)
	if err != nil {
		return fmt.Errorf("marshal connector config: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO connectors (id, org_id, kind, name, config, enabled, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.OrgID, c.Kind, c.Name, cfg, c.Enabled, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create connector: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, c *domain.Connector) error {
	cfg, err := json.Marshal(c.Config)
	if err != nil {
		return fmt.Errorf("marshal connector config: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE connectors SET kind = $3, name = $4, config = $5, enabled = $6, updated_at = $7
		  WHERE org_id = $1 AND id = $2`,
		c.OrgID, c.ID, c.Kind, c.Name, cfg, c.Enabled, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update connector: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, orgID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM connectors WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete connector: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func collect(rows *sql.Rows) ([]*domain.Connector, error) {
	defer rows.Close()
	var out []*domain.Connector
	for rows.Next() {
		c, err := scanConnector(rows)
		if err != nil {
			return nil, fmt.Errorf("scan connector: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanConnector(row interface{ Scan(...any) error }) (*domain.Connector, error) {
	var (
		c   domain.Connector
		cfg []byte
	)
	if err := row.Scan(&c.ID, &c.OrgID, &c.Kind, &c.Name, &cfg, &c.Enabled, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(cfg, &c.Config); err != nil {
		return nil, fmt.Errorf("unmarshal connector config: %w", err)
	}
	return &c, nil
}

var _ Repository = (*PostgresRepository)(nil)
