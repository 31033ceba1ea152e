package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fulqrun/backend/internal/contact/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const contactColumns = `id, org_id, name, email, phone, title, company, lead_id, created_at, updated_at`

func (r *PostgresRepository) GetByID(ctx context.Context, orgID, id string) (*domain.Contact, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE org_id = $1 AND id = $2`, orgID, id)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

// ListByOrg returns contacts, optionally prefix-matched on name, email, or company.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID, query string, limit, offset int32) ([]*domain.Contact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts
		  WHERE org_id = $1
		    AND ($2 = '' OR name ILIKE $2 || '%' OR email ILIKE $2 || '%' OR company ILIKE $2 || '%')
		  ORDER BY name ASC LIMIT $3 OFFSET $4`,
		orgID, query, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var out []*domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, c *domain.Contact) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts (id, org_id, name, email, phone, title, company, lead_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.OrgID, c.Name, c.Email, c.Phone, c.Title, c.Company, nullIfEmpty(c.LeadID), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, c *domain.Contact) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE contacts SET name = $3, email = $4, phone = $5, title = $6, company = $7, updated_at = $8
		  WHERE org_id = $1 AND id = $2`,
		c.OrgID, c.ID, c.Name, c.Email, c.Phone, c.Title, c.Company, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, orgID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM contacts WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*domain.Contact, error) {
	var (
		c      domain.Contact
		leadID sql.NullString
	)
	if err := row.Scan(&c.ID, &c.OrgID, &c.Name, &c.Email, &c.Phone, &c.Title, &c.Company, &leadID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.LeadID = leadID.String
	return &c, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
