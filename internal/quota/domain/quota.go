package domain

import (
	"errors"
	"strings"
	"time"
)

// QuotaPlan is a per-rep sales target over a period.
type QuotaPlan struct {
	ID          string
	OrgID       string
	UserID      string
	PeriodStart time.Time
	PeriodEnd   time.Time
	TargetCents int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (q *QuotaPlan) Validate() error {
	if strings.TrimSpace(q.UserID) == "" {
		return errors.New("user_id is required")
	}
	if q.PeriodStart.IsZero() || q.PeriodEnd.IsZero() {
		return errors.New("period_start and period_end are required")
	}
	if !q.PeriodEnd.After(q.PeriodStart) {
		return errors.New("period_end must be after period_start")
	}
	if q.TargetCents <= 0 {
		return errors.New("target_cents must be positive")
	}
	return nil
}

// Attainment is a plan's progress: won deal value inside the period against
// the target.
type Attainment struct {
	PlanID      string  `json:"plan_id"`
	UserID      string  `json:"user_id"`
	TargetCents int64   `json:"target_cents"`
	WonCents    int64   `json:"won_cents"`
	Ratio       float64 `json:"ratio"`
}
