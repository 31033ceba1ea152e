// Package service assembles the pharma BI reporting rollup and owns KPI
// ingest rules.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fulqrun/backend/internal/kpi/domain"
	"fulqrun/backend/internal/kpi/repository"
)

// Service wraps the KPI repository with ingest validation and the summary rollup.
type Service struct {
	repo repository.Repository
}

func New(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// IngestInput is one KPI measurement reported by a data feed or the UI.
type IngestInput struct {
	Territory      string
	Product        string
	Period         time.Time
	TRx            int
	NRx            int
	MarketShareBP  int
	CallsMade      int
	SamplesDropped int
}

// Ingest upserts one measurement. Reported periods collapse to calendar
// months, so a re-report for the same month replaces the earlier row.
func (s *Service) Ingest(ctx context.Context, orgID string, in IngestInput) (*domain.PharmaKPI, error) {
	now := time.Now().UTC()
	k := &domain.PharmaKPI{
		ID:             uuid.New().String(),
		OrgID:          orgID,
		Territory:      in.Territory,
		Product:        in.Product,
		Period:         in.Period,
		TRx:            in.TRx,
		NRx:            in.NRx,
		MarketShareBP:  in.MarketShareBP,
		CallsMade:      in.CallsMade,
		SamplesDropped: in.SamplesDropped,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := k.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, k); err != nil {
		return nil, err
	}
	return k, nil
}

func (s *Service) List(ctx context.Context, orgID string, f repository.Filter, limit, offset int32) ([]*domain.PharmaKPI, error) {
	return s.repo.ListByOrg(ctx, orgID, f, limit, offset)
}

// Summary runs the reporting aggregates and derives the period-over-period
// prescription growth rates.
func (s *Service) Summary(ctx context.Context, orgID string) (*domain.Summary, error) {
	pipeline, err := s.repo.PipelineByStage(ctx, orgID)
	if err != nil {
		return nil, err
	}
	winRate, err := s.repo.WinRate(ctx, orgID)
	if err != nil {
		return nil, err
	}
	cycleDays, err := s.repo.AvgCycleDays(ctx, orgID)
	if err != nil {
		return nil, err
	}
	conversion, err := s.repo.LeadConversionRate(ctx, orgID)
	if err != nil {
		return nil, err
	}
	current, previous, err := s.repo.RxTrend(ctx, orgID)
	if err != nil {
		return nil, err
	}
	shares, err := s.repo.MarketShareByTerritory(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return &domain.Summary{
		PipelineByStage:    pipeline,
		WinRate:            winRate,
		AvgCycleDays:       cycleDays,
		LeadConversionRate: conversion,
		TRxGrowth:          growth(current.TRx, previous.TRx),
		NRxGrowth:          growth(current.NRx, previous.NRx),
		MarketShare:        shares,
	}, nil
}

// growth is the fractional change from prev to curr; 0 when prev is unreported.
func growth(curr, prev int) float64 {
	if prev == 0 {
		return 0
	}
	return float64(curr-prev) / float64(prev)
}
