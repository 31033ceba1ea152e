package domain

import (
	"errors"
	"fmt"
	"time"
)

// Stage is the PEAK pipeline stage.
type Stage string

const (
	StageProspecting Stage = "prospecting"
	StageEngaging    Stage = "engaging"
	StageAdvancing   Stage = "advancing"
	StageKeyDecision Stage = "key_decision"
)

var stageOrder = map[Stage]int{
	StageProspecting: 0,
	StageEngaging:    1,
	StageAdvancing:   2,
	StageKeyDecision: 3,
}

func (s Stage) Valid() bool {
	_, ok := stageOrder[s]
	return ok
}

// CanTransition reports whether moving from s to next is allowed: any number
// of steps forward, or exactly one step back.
func (s Stage) CanTransition(next Stage) bool {
	from, ok := stageOrder[s]
	if !ok {
		return false
	}
	to, ok := stageOrder[next]
	if !ok {
		return false
	}
	return to > from || to == from-1
}

// Status is the deal outcome.
type Status string

const (
	StatusOpen Status = "open"
	StatusWon  Status = "won"
	StatusLost Status = "lost"
)

// Opportunity is a deal in the pipeline.
type Opportunity struct {
	ID         string
	OrgID      string
	OwnerID    string
	ContactID  string // optional
	Name       string
	ValueCents int64
	Currency   string
	Stage      Stage
	Status     Status
	Score      int    // latest assessment score, 0 when never assessed
	Band       string // latest assessment band
	CloseDate  *time.Time
	ClosedAt   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate validates the opportunity for persistence.
func (o *Opportunity) Validate() error {
	if o.Name == "" {
		return errors.New("name is required")
	}
	if o.ValueCents < 0 {
		return errors.New("value must not be negative")
	}
	if o.Stage == "" {
		o.Stage = StageProspecting
	}
	if !o.Stage.Valid() {
		return fmt.Errorf("invalid stage %q", o.Stage)
	}
	if o.Status == "" {
		o.Status = StatusOpen
	}
	if o.Currency == "" {
		o.Currency = "USD"
	}
	if o.Band == "" {
		o.Band = "weak"
	}
	return nil
}
