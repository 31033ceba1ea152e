package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"fulqrun/backend/internal/kpi/domain"
	"fulqrun/backend/internal/kpi/repository"
)

type memKPIRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.PharmaKPI // keyed org|territory|product|period

	trend [2]domain.RxTotals
}

func newMemKPIRepo() *memKPIRepo {
	return &memKPIRepo{rows: make(map[string]*domain.PharmaKPI)}
}

func (m *memKPIRepo) key(k *domain.PharmaKPI) string {
	return k.OrgID + "|" + k.Territory + "|" + k.Product + "|" + k.Period.Format("2006-01")
}

func (m *memKPIRepo) Upsert(_ context.Context, k *domain.PharmaKPI) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *k
	m.rows[m.key(k)] = &cp
	return nil
}

func (m *memKPIRepo) ListByOrg(_ context.Context, orgID string, _ repository.Filter, _, _ int32) ([]*domain.PharmaKPI, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.PharmaKPI
	for _, k := range m.rows {
		if k.OrgID == orgID {
			cp := *k
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memKPIRepo) PipelineByStage(_ context.Context, _ string) ([]domain.StageValue, error) {
	return []domain.StageValue{{Stage: "prospecting", Count: 2, ValueCents: 500000}}, nil
}

func (m *memKPIRepo) WinRate(_ context.Context, _ string) (float64, error)      { return 0.5, nil }
func (m *memKPIRepo) AvgCycleDays(_ context.Context, _ string) (float64, error) { return 30, nil }
func (m *memKPIRepo) LeadConversionRate(_ context.Context, _ string) (float64, error) {
	return 0.25, nil
}

func (m *memKPIRepo) RxTrend(_ context.Context, _ string) (domain.RxTotals, domain.RxTotals, error) {
	return m.trend[0], m.trend[1], nil
}

func (m *memKPIRepo) MarketShareByTerritory(_ context.Context, _ string) ([]domain.TerritoryShare, error) {
	return []domain.TerritoryShare{{Territory: "northeast", AvgShareBP: 1250}}, nil
}

func TestIngestNormalizesPeriod(t *testing.T) {
	repo := newMemKPIRepo()
	svc := New(repo)

	k, err := svc.Ingest(context.Background(), "org-1", IngestInput{
		Territory: "northeast",
		Product:   "cardiostat",
		Period:    time.Date(2026, 3, 17, 9, 30, 0, 0, time.UTC),
		TRx:       120,
		NRx:       45,
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if !k.Period.Equal(want) {
		t.Errorf("Period = %v, want %v", k.Period, want)
	}

	// Re-reporting the same month replaces the row.
	_, err = svc.Ingest(context.Background(), "org-1", IngestInput{
		Territory: "northeast",
		Product:   "cardiostat",
		Period:    time.Date(2026, 3, 28, 0, 0, 0, 0, time.UTC),
		TRx:       130,
		NRx:       50,
	})
	if err != nil {
		t.Fatalf("second Ingest() error = %v", err)
	}
	rows, _ := repo.ListByOrg(context.Background(), "org-1", repository.Filter{}, 100, 0)
	if len(rows) != 1 {
		t.Fatalf("stored %d rows, want 1", len(rows))
	}
	if rows[0].TRx != 130 {
		t.Errorf("TRx = %d, want 130", rows[0].TRx)
	}
}

func TestIngestValidation(t *testing.T) {
	svc := New(newMemKPIRepo())
	cases := []struct {
		name string
		in   IngestInput
	}{
		{"missing territory", IngestInput{Product: "cardiostat", Period: time.Now()}},
		{"missing product", IngestInput{Territory: "northeast", Period: time.Now()}},
		{"missing period", IngestInput{Territory: "northeast", Product: "cardiostat"}},
		{"negative trx", IngestInput{Territory: "northeast", Product: "cardiostat", Period: time.Now(), TRx: -1}},
		{"share over 100%", IngestInput{Territory: "northeast", Product: "cardiostat", Period: time.Now(), MarketShareBP: 10001}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Ingest(context.Background(), "org-1", tc.in); err == nil {
				t.Error("Ingest() should fail")
			}
		})
	}
}

func TestSummaryGrowth(t *testing.T) {
	repo := newMemKPIRepo()
	repo.trend[0] = domain.RxTotals{TRx: 150, NRx: 60}
	repo.trend[1] = domain.RxTotals{TRx: 100, NRx: 80}
	svc := New(repo)

	s, err := svc.Summary(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if s.TRxGrowth != 0.5 {
		t.Errorf("TRxGrowth = %v, want 0.5", s.TRxGrowth)
	}
	if s.NRxGrowth != -0.25 {
		t.Errorf("NRxGrowth = %v, want -0.25", s.NRxGrowth)
	}
	if s.WinRate != 0.5 || s.AvgCycleDays != 30 || s.LeadConversionRate != 0.25 {
		t.Errorf("rollup = %+v, aggregates not passed through", s)
	}
}

func TestSummaryGrowthNoHistory(t *testing.T) {
	repo := newMemKPIRepo()
	repo.trend[0] = domain.RxTotals{TRx: 150, NRx: 60}
	svc := New(repo)

	s, err := svc.Summary(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if s.TRxGrowth != 0 || s.NRxGrowth != 0 {
		t.Errorf("growth = %v/%v, want 0 with a single reported period", s.TRxGrowth, s.NRxGrowth)
	}
}
