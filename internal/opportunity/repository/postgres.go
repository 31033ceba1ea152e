package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fulqrun/backend/internal/opportunity/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const opportunityColumns = `id, org_id, owner_id, contact_id, name, value_cents, currency, peak_stage, status, score, band, close_date, closed_at, created_at, updated_at`

func (r *PostgresRepository) GetByID(ctx context.Context, orgID, id string) (*domain.Opportunity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities WHERE org_id = $1 AND id = $2`,
		orgID, id,
	)
	o, err := scanOpportunity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get opportunity: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, f Filter, limit, offset int32) ([]*domain.Opportunity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities
		  WHERE org_id = $1
		    AND ($2::text IS NULL OR peak_stage = $2)
		    AND ($3::text IS NULL OR status = $3)
		    AND ($4::text IS NULL OR owner_id = $4)
		  ORDER BY created_at DESC LIMIT $5 OFFSET $6`,
		orgID, stagePtr(f.Stage), statusPtr(f.Status), f.OwnerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()

	var out []*domain.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, o *domain.Opportunity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO opportunities (id, org_id, owner_id, contact_id, name, value_cents, currency, peak_stage, status, score, band, close_date, closed_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		o.ID, o.OrgID, o.OwnerID, nullIfEmpty(o.ContactID), o.Name, o.ValueCents, o.Currency,
		o.Stage, o.Status, o.Score, o.Band, timeToNull(o.CloseDate), timeToNull(o.ClosedAt),
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create opportunity: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, o *domain.Opportunity) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE opportunities
		    SET owner_id = $3, contact_id = $4, name = $5, value_cents = $6, currency = $7,
		        peak_stage = $8, status = $9, score = $10, band = $11, close_date = $12,
		        closed_at = $13, updated_at = $14
		  WHERE org_id = $1 AND id = $2`,
		o.OrgID, o.ID, o.OwnerID, nullIfEmpty(o.ContactID), o.Name, o.ValueCents, o.Currency,
		o.Stage, o.Status, o.Score, o.Band, timeToNull(o.CloseDate), timeToNull(o.ClosedAt),
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update opportunity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, orgID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM opportunities WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete opportunity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateScore stamps the latest assessment result onto the opportunity row.
func (r *PostgresRepository) UpdateScore(ctx context.Context, orgID, id string, score int, band string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE opportunities SET score = $3, band = $4, updated_at = $5 WHERE org_id = $1 AND id = $2`,
		orgID, id, score, band, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update opportunity score: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOpportunity(row rowScanner) (*domain.Opportunity, error) {
	var (
		o         domain.Opportunity
		contactID sql.NullString
		closeDate sql.NullTime
		closedAt  sql.NullTime
	)
	if err := row.Scan(&o.ID, &o.OrgID, &o.OwnerID, &contactID, &o.Name, &o.ValueCents, &o.Currency,
		&o.Stage, &o.Status, &o.Score, &o.Band, &closeDate, &closedAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.ContactID = contactID.String
	if closeDate.Valid {
		o.CloseDate = &closeDate.Time
	}
	if closedAt.Valid {
		o.ClosedAt = &closedAt.Time
	}
	return &o, nil
}

func stagePtr(s *domain.Stage) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

func statusPtr(s *domain.Status) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func timeToNull(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
