package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	kpidomain "fulqrun/backend/internal/kpi/domain"
	leaddomain "fulqrun/backend/internal/lead/domain"
	leadrepo "fulqrun/backend/internal/lead/repository"
	oppdomain "fulqrun/backend/internal/opportunity/domain"
	opprepo "fulqrun/backend/internal/opportunity/repository"
	quotadomain "fulqrun/backend/internal/quota/domain"
)

// Reporter supplies the BI rollup widgets read from.
type Reporter interface {
	Summary(ctx context.Context, orgID string) (*kpidomain.Summary, error)
}

// AttainmentReader resolves a quota plan's progress.
type AttainmentReader interface {
	Attainment(ctx context.Context, orgID, id string) (*quotadomain.Attainment, error)
}

// LeadLister lists leads for the recent-leads widget.
type LeadLister interface {
	List(ctx context.Context, orgID string, f leadrepo.Filter, limit, offset int32) ([]*leaddomain.Lead, error)
}

// OpportunityLister lists opportunities for the pipeline widget.
type OpportunityLister interface {
	List(ctx context.Context, orgID string, f opprepo.Filter, limit, offset int32) ([]*oppdomain.Opportunity, error)
}

// DefaultSources wires the built-in widget kinds.
func DefaultSources(reporter Reporter, quotas AttainmentReader, leads LeadLister, opps OpportunityLister) map[string]Source {
	return map[string]Source{
		"kpi_summary": func(ctx context.Context, orgID, _ string, _ json.RawMessage) (any, error) {
			return reporter.Summary(ctx, orgID)
		},
		"pipeline_by_stage": func(ctx context.Context, orgID, _ string, _ json.RawMessage) (any, error) {
			s, err := reporter.Summary(ctx, orgID)
			if err != nil {
				return nil, err
			}
			return s.PipelineByStage, nil
		},
		"win_rate": func(ctx context.Context, orgID, _ string, _ json.RawMessage) (any, error) {
			s, err := reporter.Summary(ctx, orgID)
			if err != nil {
				return nil, err
			}
			return map[string]float64{"win_rate": s.WinRate, "avg_cycle_days": s.AvgCycleDays}, nil
		},
		"quota_attainment": func(ctx context.Context, orgID, _ string, config json.RawMessage) (any, error) {
			var cfg struct {
				PlanID string `json:"plan_id"`
			}
			if len(config) > 0 {
				if err := json.Unmarshal(config, &cfg); err != nil {
					return nil, fmt.Errorf("widget config: %w", err)
				}
			}
			if cfg.PlanID == "" {
				return nil, errors.New("widget config needs plan_id")
			}
			return quotas.Attainment(ctx, orgID, cfg.PlanID)
		},
		"recent_leads": func(ctx context.Context, orgID, _ string, config json.RawMessage) (any, error) {
			limit := widgetLimit(config, 5)
			return leads.List(ctx, orgID, leadrepo.Filter{}, limit, 0)
		},
		"my_opportunities": func(ctx context.Context, orgID, userID string, config json.RawMessage) (any, error) {
			limit := widgetLimit(config, 10)
			open := oppdomain.StatusOpen
			return opps.List(ctx, orgID, opprepo.Filter{Status: &open, OwnerID: &userID}, limit, 0)
		},
	}
}

func widgetLimit(config json.RawMessage, def int32) int32 {
	var cfg struct {
		Limit int32 `json:"limit"`
	}
	if len(config) > 0 {
		if err := json.Unmarshal(config, &cfg); err == nil && cfg.Limit > 0 && cfg.Limit <= 50 {
			return cfg.Limit
		}
	}
	return def
}
