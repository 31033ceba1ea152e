package repository

import (
	"context"
	"database/sql"
	"fmt"

	"fulqrun/backend/internal/kpi/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const kpiColumns = `id, org_id, territory, product, period, trx, nrx, market_share_bp, calls_made, samples_dropped, created_at, updated_at`

func (r *PostgresRepository) Upsert(ctx context.Context, k *domain.PharmaKPI) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pharmaceutical_kpis (id, org_id, territory, product, period, trx, nrx, market_share_bp, calls_made, samples_dropped, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		 ON CONFLICT (org_id, territory, product, period) DO UPDATE
		    SET trx = EXCLUDED.trx,
		        nrx = EXCLUDED.nrx,
		        market_share_bp = EXCLUDED.market_share_bp,
		        calls_made = EXCLUDED.calls_made,
		        samples_dropped = EXCLUDED.samples_dropped,
		        updated_at = EXCLUDED.updated_at`,
		k.ID, k.OrgID, k.Territory, k.Product, k.Period, k.TRx, k.NRx,
		k.MarketShareBP, k.CallsMade, k.SamplesDropped, k.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert kpi: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, f Filter, limit, offset int32) ([]*domain.PharmaKPI, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+kpiColumns+` FROM pharmaceutical_kpis
		  WHERE org_id = $1
		    AND ($2::text IS NULL OR territory = $2)
		    AND ($3::text IS NULL OR product = $3)
		    AND ($4::date IS NULL OR period >= $4)
		    AND ($5::date IS NULL OR period <= $5)
		  ORDER BY period DESC, territory, product LIMIT $6 OFFSET $7`,
		orgID, f.Territory, f.Product, f.From, f.To, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list kpis: %w", err)
	}
	defer rows.Close()

	var out []*domain.PharmaKPI
	for rows.Next() {
		var k domain.PharmaKPI
		if err := rows.Scan(&k.ID, &k.OrgID, &k.Territory, &k.Product, &k.Period,
			&k.TRx, &k.NRx, &k.MarketShareBP, &k.CallsMade, &k.SamplesDropped,
			&k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan kpi: %w", err)
		}
		out = append(out, &k)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) PipelineByStage(ctx context.Context, orgID string) ([]domain.StageValue, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT peak_stage, COUNT(*), COALESCE(SUM(value_cents), 0)
		   FROM opportunities WHERE org_id = $1 AND status = 'open'
		  GROUP BY peak_stage`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("pipeline by stage: %w", err)
	}
	defer rows.Close()

	var out []domain.StageValue
	for rows.Next() {
		var sv domain.StageValue
		if err := rows.Scan(&sv.Stage, &sv.Count, &sv.ValueCents); err != nil {
			return nil, fmt.Errorf("scan stage value: %w", err)
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) WinRate(ctx context.Context, orgID string) (float64, error) {
	var won, closed int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FILTER (WHERE status = 'won'),
		        COUNT(*) FILTER (WHERE status IN ('won', 'lost'))
		   FROM opportunities WHERE org_id = $1`,
		orgID,
	).Scan(&won, &closed)
	if err != nil {
		return 0, fmt.Errorf("win rate: %w", err)
	}
	if closed == 0 {
		return 0, nil
	}
	return float64(won) / float64(closed), nil
}

func (r *PostgresRepository) AvgCycleDays(ctx context.Context, orgID string) (float64, error) {
	var days sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		`SELECT AVG(EXTRACT(EPOCH FROM closed_at - created_at) / 86400.0)
		   FROM opportunities WHERE org_id = $1 AND closed_at IS NOT NULL`,
		orgID,
	).Scan(&days)
	if err != nil {
		return 0, fmt.Errorf("avg cycle days: %w", err)
	}
	return days.Float64, nil
}

func (r *PostgresRepository) LeadConversionRate(ctx context.Context, orgID string) (float64, error) {
	var converted, total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FILTER (WHERE status = 'converted'), COUNT(*)
		   FROM leads WHERE org_id = $1`,
		orgID,
	).Scan(&converted, &total)
	if err != nil {
		return 0, fmt.Errorf("lead conversion rate: %w", err)
	}
	if total == 0 {
		return 0, nil
	}
	return float64(converted) / float64(total), nil
}

func (r *PostgresRepository) RxTrend(ctx context.Context, orgID string) (current, previous domain.RxTotals, err error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT period, SUM(trx), SUM(nrx) FROM pharmaceutical_kpis
		  WHERE org_id = $1 GROUP BY period ORDER BY period DESC LIMIT 2`,
		orgID,
	)
	if err != nil {
		return current, previous, fmt.Errorf("rx trend: %w", err)
	}
	defer rows.Close()

	totals := make([]domain.RxTotals, 0, 2)
	for rows.Next() {
		var t domain.RxTotals
		if err := rows.Scan(&t.Period, &t.TRx, &t.NRx); err != nil {
			return current, previous, fmt.Errorf("scan rx totals: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return current, previous, err
	}
	if len(totals) > 0 {
		current = totals[0]
	}
	if len(totals) > 1 {
		previous = totals[1]
	}
	return current, previous, nil
}

func (r *PostgresRepository) MarketShareByTerritory(ctx context.Context, orgID string) ([]domain.TerritoryShare, error) {
	// Latest reported period only; older rows would skew the average.
	rows, err := r.db.QueryContext(ctx,
		`SELECT territory, CAST(ROUND(AVG(market_share_bp)) AS INTEGER)
		   FROM pharmaceutical_kpis
		  WHERE org_id = $1
		    AND period = (SELECT MAX(period) FROM pharmaceutical_kpis WHERE org_id = $1)
		  GROUP BY territory ORDER BY territory`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("market share: %w", err)
	}
	defer rows.Close()

	var out []domain.TerritoryShare
	for rows.Next() {
		var ts domain.TerritoryShare
		if err := rows.Scan(&ts.Territory, &ts.AvgShareBP); err != nil {
			return nil, fmt.Errorf("scan territory share: %w", err)
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

var _ Repository = (*PostgresRepository)(nil)
