package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"fulqrun/backend/internal/export/domain"
	kpidomain "fulqrun/backend/internal/kpi/domain"
	kpirepo "fulqrun/backend/internal/kpi/repository"
	leaddomain "fulqrun/backend/internal/lead/domain"
	leadrepo "fulqrun/backend/internal/lead/repository"
	oppdomain "fulqrun/backend/internal/opportunity/domain"
	opprepo "fulqrun/backend/internal/opportunity/repository"
)

// exportPageSize is how many rows each exporter fetches per repository call.
const exportPageSize int32 = 500

// LeadSource pages leads for export.
type LeadSource interface {
	ListByOrg(ctx context.Context, orgID string, f leadrepo.Filter, limit, offset int32) ([]*leaddomain.Lead, error)
}

// OpportunitySource pages opportunities for export.
type OpportunitySource interface {
	ListByOrg(ctx context.Context, orgID string, f opprepo.Filter, limit, offset int32) ([]*oppdomain.Opportunity, error)
}

// KPISource pages pharma KPI rows for export.
type KPISource interface {
	ListByOrg(ctx context.Context, orgID string, f kpirepo.Filter, limit, offset int32) ([]*kpidomain.PharmaKPI, error)
}

// Exporter generates CSV payloads for export jobs.
type Exporter struct {
	leads LeadSource
	opps  OpportunitySource
	kpis  KPISource
}

func NewExporter(leads LeadSource, opps OpportunitySource, kpis KPISource) *Exporter {
	return &Exporter{leads: leads, opps: opps, kpis: kpis}
}

// Export runs the job's exporter and returns the CSV payload.
func (e *Exporter) Export(ctx context.Context, j *domain.ExportJob) ([]byte, error) {
	switch j.Kind {
	case domain.KindLeads:
		return e.exportLeads(ctx, j.OrgID)
	case domain.KindOpportunities:
		return e.exportOpportunities(ctx, j.OrgID)
	case domain.KindKPIs:
		return e.exportKPIs(ctx, j.OrgID)
	}
	return nil, fmt.Errorf("unknown export kind %q", j.Kind)
}

func (e *Exporter) exportLeads(ctx context.Context, orgID string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "name", "company", "email", "phone", "source", "status", "score", "owner_id", "created_at"}); err != nil {
		return nil, err
	}
	for offset := int32(0); ; offset += exportPageSize {
		page, err := e.leads.ListByOrg(ctx, orgID, leadrepo.Filter{}, exportPageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, l := range page {
			if err := w.Write([]string{
				l.ID, l.Name, l.Company, l.Email, l.Phone, l.Source,
				string(l.Status), strconv.Itoa(l.Score), l.OwnerID,
				l.CreatedAt.Format(time.RFC3339),
			}); err != nil {
				return nil, err
			}
		}
		if int32(len(page)) < exportPageSize {
			break
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (e *Exporter) exportOpportunities(ctx context.Context, orgID string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "name", "stage", "status", "value_cents", "currency", "score", "band", "owner_id", "contact_id", "close_date", "created_at"}); err != nil {
		return nil, err
	}
	for offset := int32(0); ; offset += exportPageSize {
		page, err := e.opps.ListByOrg(ctx, orgID, opprepo.Filter{}, exportPageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, o := range page {
			closeDate := ""
			if o.CloseDate != nil {
				closeDate = o.CloseDate.Format("2006-01-02")
			}
			if err := w.Write([]string{
				o.ID, o.Name, string(o.Stage), string(o.Status),
				strconv.FormatInt(o.ValueCents, 10), o.Currency,
				strconv.Itoa(o.Score), o.Band, o.OwnerID, o.ContactID,
				closeDate, o.CreatedAt.Format(time.RFC3339),
			}); err != nil {
				return nil, err
			}
		}
		if int32(len(page)) < exportPageSize {
			break
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (e *Exporter) exportKPIs(ctx context.Context, orgID string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"territory", "product", "period", "trx", "nrx", "market_share_bp", "calls_made", "samples_dropped"}); err != nil {
		return nil, err
	}
	for offset := int32(0); ; offset += exportPageSize {
		page, err := e.kpis.ListByOrg(ctx, orgID, kpirepo.Filter{}, exportPageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, k := range page {
			if err := w.Write([]string{
				k.Territory, k.Product, k.Period.Format("2006-01"),
				strconv.Itoa(k.TRx), strconv.Itoa(k.NRx),
				strconv.Itoa(k.MarketShareBP), strconv.Itoa(k.CallsMade),
				strconv.Itoa(k.SamplesDropped),
			}); err != nil {
				return nil, err
			}
		}
		if int32(len(page)) < exportPageSize {
			break
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
