package repository

import (
	"context"
	"time"

	"fulqrun/backend/internal/kpi/domain"
)

// Filter narrows KPI queries. Nil fields match everything.
type Filter struct {
	Territory *string
	Product   *string
	From      *time.Time
	To        *time.Time
}

// Repository persists pharma KPI rows and runs the reporting aggregates.
type Repository interface {
	// Upsert inserts a measurement or replaces the existing row for the same
	// org/territory/product/period.
	Upsert(ctx context.Context, k *domain.PharmaKPI) error
	ListByOrg(ctx context.Context, orgID string, f Filter, limit, offset int32) ([]*domain.PharmaKPI, error)

	// Reporting aggregates over the CRM and KPI tables.
	PipelineByStage(ctx context.Context, orgID string) ([]domain.StageValue, error)
	WinRate(ctx context.Context, orgID string) (float64, error)
	AvgCycleDays(ctx context.Context, orgID string) (float64, error)
	LeadConversionRate(ctx context.Context, orgID string) (float64, error)
	// RxTrend returns prescription totals for the two most recent reported
	// periods, newest first. Either may be zero-valued when unreported.
	RxTrend(ctx context.Context, orgID string) (current, previous domain.RxTotals, err error)
	MarketShareByTerritory(ctx context.Context, orgID string) ([]domain.TerritoryShare, error)
}
