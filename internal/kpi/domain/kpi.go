// Package domain defines pharmaceutical field KPIs tracked per territory,
// product, and month.
package domain

import (
	"errors"
	"strings"
	"time"
)

// PharmaKPI is one territory/product/month measurement row. MarketShareBP is
// basis points (0-10000) so shares stay integral.
type PharmaKPI struct {
	ID             string
	OrgID          string
	Territory      string
	Product        string
	Period         time.Time // normalized to the first day of the month, UTC
	TRx            int       // total prescriptions
	NRx            int       // new prescriptions
	MarketShareBP  int
	CallsMade      int
	SamplesDropped int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (k *PharmaKPI) Validate() error {
	if strings.TrimSpace(k.Territory) == "" {
		return errors.New("territory is required")
	}
	if strings.TrimSpace(k.Product) == "" {
		return errors.New("product is required")
	}
	if k.Period.IsZero() {
		return errors.New("period is required")
	}
	if k.TRx < 0 || k.NRx < 0 || k.CallsMade < 0 || k.SamplesDropped < 0 {
		return errors.New("counts must not be negative")
	}
	if k.MarketShareBP < 0 || k.MarketShareBP > 10000 {
		return errors.New("market_share_bp must be between 0 and 10000")
	}
	k.Period = NormalizePeriod(k.Period)
	return nil
}

// NormalizePeriod truncates a timestamp to the first day of its month in UTC.
func NormalizePeriod(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// StageValue is open pipeline aggregated over one PEAK stage.
type StageValue struct {
	Stage      string `json:"stage"`
	Count      int    `json:"count"`
	ValueCents int64  `json:"value_cents"`
}

// TerritoryShare is the average market share for a territory in the most
// recent reported period.
type TerritoryShare struct {
	Territory  string `json:"territory"`
	AvgShareBP int    `json:"avg_share_bp"`
}

// RxTotals sums prescriptions over one reporting period.
type RxTotals struct {
	Period time.Time `json:"period"`
	TRx    int       `json:"trx"`
	NRx    int       `json:"nrx"`
}

// Summary is the org-wide BI rollup served by the reporting endpoint.
type Summary struct {
	PipelineByStage    []StageValue     `json:"pipeline_by_stage"`
	WinRate            float64          `json:"win_rate"`
	AvgCycleDays       float64          `json:"avg_cycle_days"`
	LeadConversionRate float64          `json:"lead_conversion_rate"`
	TRxGrowth          float64          `json:"trx_growth"`
	NRxGrowth          float64          `json:"nrx_growth"`
	MarketShare        []TerritoryShare `json:"market_share"`
}
