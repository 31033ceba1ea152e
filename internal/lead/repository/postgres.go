package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	contactdomain "fulqrun/backend/internal/contact/domain"
	"fulqrun/backend/internal/lead/domain"
	oppdomain "fulqrun/backend/internal/opportunity/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const leadColumns = `id, org_id, owner_id, name, company, email, phone, source, status, score, created_at, updated_at`

func (r *PostgresRepository) GetByID(ctx context.Context, orgID, id string) (*domain.Lead, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE org_id = $1 AND id = $2`, orgID, id)
	l, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return l, nil
}

func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, f Filter, limit, offset int32) ([]*domain.Lead, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads
		  WHERE org_id = $1
		    AND ($2::text IS NULL OR status = $2)
		    AND ($3::text IS NULL OR owner_id = $3)
		  ORDER BY created_at DESC LIMIT $4 OFFSET $5`,
		orgID, statusPtr(f.Status), f.OwnerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []*domain.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, l *domain.Lead) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO leads (id, org_id, owner_id, name, company, email, phone, source, status, score, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		l.ID, l.OrgID, l.OwnerID, l.Name, l.Company, l.Email, l.Phone, l.Source, l.Status, l.Score, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, l *domain.Lead) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE leads SET owner_id = $3, name = $4, company = $5, email = $6, phone = $7, source = $8, status = $9, score = $10, updated_at = $11
		  WHERE org_id = $1 AND id = $2`,
		l.OrgID, l.ID, l.OwnerID, l.Name, l.Company, l.Email, l.Phone, l.Source, l.Status, l.Score, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, orgID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM leads WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Convert flips the lead to converted and inserts the contact and opportunity
// atomically, so a crash cannot leave a converted lead without its records.
func (r *PostgresRepository) Convert(ctx context.Context, l *domain.Lead, c *contactdomain.Contact, o *oppdomain.Opportunity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin convert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE leads SET status = $3, score = $4, updated_at = $5 WHERE org_id = $1 AND id = $2 AND status NOT IN ('converted', 'lost')`,
		l.OrgID, l.ID, l.Status, l.Score, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("convert lead: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO contacts (id, org_id, name, email, phone, title, company, lead_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.OrgID, c.Name, c.Email, c.Phone, c.Title, c.Company, c.LeadID, c.CreatedAt, c.UpdatedAt,
	); err != nil {
		return fmt.Errorf("convert lead contact: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO opportunities (id, org_id, owner_id, contact_id, name, value_cents, currency, peak_stage, status, score, band, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		o.ID, o.OrgID, o.OwnerID, o.ContactID, o.Name, o.ValueCents, o.Currency, o.Stage, o.Status, o.Score, o.Band, o.CreatedAt, o.UpdatedAt,
	); err != nil {
		return fmt.Errorf("convert lead opportunity: %w", err)
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*domain.Lead, error) {
	var l domain.Lead
	if err := row.Scan(&l.ID, &l.OrgID, &l.OwnerID, &l.Name, &l.Company, &l.Email, &l.Phone, &l.Source, &l.Status, &l.Score, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func statusPtr(s *domain.Status) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}
