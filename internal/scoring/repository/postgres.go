package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fulqrun/backend/internal/scoring/domain"
)

type PostgresAssessmentRepository struct {
	db *sql.DB
}

func NewPostgresAssessmentRepository(db *sql.DB) *PostgresAssessmentRepository {
	return &PostgresAssessmentRepository{db: db}
}

func (r *PostgresAssessmentRepository) Create(ctx context.Context, a *domain.Assessment) error {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	breakdown, err := json.Marshal(a.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO meddpicc_assessments (id, org_id, opportunity_id, answers, breakdown, score, band, assessed_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.OrgID, a.OpportunityID, answers, breakdown, a.Score, a.Band, a.AssessedBy, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create assessment: %w", err)
	}
	return nil
}

func (r *PostgresAssessmentRepository) GetLatestByOpportunity(ctx context.Context, orgID, opportunityID string) (*domain.Assessment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, org_id, opportunity_id, answers, breakdown, score, band, assessed_by, created_at
		   FROM meddpicc_assessments
		  WHERE org_id = $1 AND opportunity_id = $2
		  ORDER BY created_at DESC LIMIT 1`,
		orgID, opportunityID,
	)
	var (
		a         domain.Assessment
		answers   []byte
		breakdown []byte
	)
	err := row.Scan(&a.ID, &a.OrgID, &a.OpportunityID, &answers, &breakdown, &a.Score, &a.Band, &a.AssessedBy, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assessment: %w", err)
	}
	if err := json.Unmarshal(answers, &a.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	if err := json.Unmarshal(breakdown, &a.Breakdown); err != nil {
		return nil, fmt.Errorf("unmarshal breakdown: %w", err)
	}
	return &a, nil
}

type PostgresConfigRepository struct {
	db *sql.DB
}

func NewPostgresConfigRepository(db *sql.DB) *PostgresConfigRepository {
	return &PostgresConfigRepository{db: db}
}

// Get returns the org's scoring config, or nil when the org has not customized it.
func (r *PostgresConfigRepository) Get(ctx context.Context, orgID string) (*domain.Config, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT config FROM org_scoring_configs WHERE org_id = $1`, orgID)
	var raw []byte
	err := row.Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get scoring config: %w", err)
	}
	var cfg domain.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal scoring config: %w", err)
	}
	return &cfg, nil
}

func (r *PostgresConfigRepository) Put(ctx context.Context, orgID string, cfg *domain.Config, updatedBy string) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal scoring config: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO org_scoring_configs (org_id, config, updated_by, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (org_id) DO UPDATE SET config = EXCLUDED.config, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`,
		orgID, raw, updatedBy, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("put scoring config: %w", err)
	}
	return nil
}
