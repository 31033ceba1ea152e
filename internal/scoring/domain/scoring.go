package domain

import (
	"errors"
	"fmt"
	"time"
)

// Pillar names the eight MEDDPICC qualification dimensions.
type Pillar string

const (
	PillarMetrics          Pillar = "metrics"
	PillarEconomicBuyer    Pillar = "economic_buyer"
	PillarDecisionCriteria Pillar = "decision_criteria"
	PillarDecisionProcess  Pillar = "decision_process"
	PillarPaperProcess     Pillar = "paper_process"
	PillarIdentifyPain     Pillar = "identify_pain"
	PillarChampion         Pillar = "champion"
	PillarCompetition      Pillar = "competition"
)

// Pillars lists all pillars in canonical order.
var Pillars = []Pillar{
	PillarMetrics,
	PillarEconomicBuyer,
	PillarDecisionCriteria,
	PillarDecisionProcess,
	PillarPaperProcess,
	PillarIdentifyPain,
	PillarChampion,
	PillarCompetition,
}

// Band buckets a 0-100 score for at-a-glance reads.
type Band string

const (
	BandWeak       Band = "weak"
	BandDeveloping Band = "developing"
	BandSolid      Band = "solid"
	BandStrong     Band = "strong"
)

// BandFor maps a 0-100 score to its band.
func BandFor(score int) Band {
	switch {
	case score <= 25:
		return BandWeak
	case score <= 50:
		return BandDeveloping
	case score <= 75:
		return BandSolid
	default:
		return BandStrong
	}
}

// Answers holds the free-text answer per pillar. Missing pillars score zero.
type Answers map[Pillar]string

// PillarScore is the scored result for one pillar.
type PillarScore struct {
	Points   int     `json:"points"`   // 0-10
	Weight   int     `json:"weight"`   // share of the 0-100 total
	Weighted float64 `json:"weighted"` // points/10 * weight
}

// Breakdown maps each pillar to its scored result.
type Breakdown map[Pillar]PillarScore

// Assessment is a scored MEDDPICC submission for an opportunity. Submissions
// are append-only; the newest row is the opportunity's current assessment.
type Assessment struct {
	ID            string
	OrgID         string
	OpportunityID string
	Answers       Answers
	Breakdown     Breakdown
	Score         int
	Band          Band
	AssessedBy    string
	CreatedAt     time.Time
}

// PillarConfig tunes how one pillar is scored.
type PillarConfig struct {
	Weight   int      `json:"weight"`
	Keywords []string `json:"keywords,omitempty"` // each match adds a point, capped at 10
}

// Config is an org's scoring configuration. Weights must sum to 100.
type Config struct {
	Pillars map[Pillar]PillarConfig `json:"pillars"`
}

// Validate checks that every pillar is present with a non-negative weight and
// that the weights sum to exactly 100.
func (c *Config) Validate() error {
	if len(c.Pillars) == 0 {
		return errors.New("scoring config requires pillar weights")
	}
	total := 0
	for _, p := range Pillars {
		pc, ok := c.Pillars[p]
		if !ok {
			return fmt.Errorf("scoring config missing pillar %q", p)
		}
		if pc.Weight < 0 {
			return fmt.Errorf("pillar %q has negative weight", p)
		}
		total += pc.Weight
	}
	if total != 100 {
		return fmt.Errorf("pillar weights sum to %d, want 100", total)
	}
	return nil
}

// DefaultConfig returns the stock weights used until an org customizes them.
func DefaultConfig() *Config {
	return &Config{Pillars: map[Pillar]PillarConfig{
		PillarMetrics:          {Weight: 15, Keywords: []string{"roi", "revenue", "cost", "kpi"}},
		PillarEconomicBuyer:    {Weight: 15, Keywords: []string{"budget", "cfo", "vp", "owner"}},
		PillarDecisionCriteria: {Weight: 10, Keywords: []string{"criteria", "requirement", "must-have"}},
		PillarDecisionProcess:  {Weight: 10, Keywords: []string{"timeline", "committee", "approval"}},
		PillarPaperProcess:     {Weight: 10, Keywords: []string{"legal", "procurement", "contract", "msa"}},
		PillarIdentifyPain:     {Weight: 15, Keywords: []string{"pain", "risk", "churn", "losing"}},
		PillarChampion:         {Weight: 15, Keywords: []string{"champion", "advocate", "sponsor"}},
		PillarCompetition:      {Weight: 10, Keywords: []string{"competitor", "incumbent", "alternative"}},
	}}
}
