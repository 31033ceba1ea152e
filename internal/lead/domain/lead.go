package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the lead lifecycle state.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQualified Status = "qualified"
	StatusConverted Status = "converted"
	StatusLost      Status = "lost"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusQualified, StatusConverted, StatusLost:
		return true
	}
	return false
}

// Terminal reports whether the lead can no longer change state.
func (s Status) Terminal() bool {
	return s == StatusConverted || s == StatusLost
}

// Lead is an unqualified prospect.
type Lead struct {
	ID        string
	OrgID     string
	OwnerID   string
	Name      string
	Company   string
	Email     string
	Phone     string
	Source    string
	Status    Status
	Score     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the lead for persistence.
func (l *Lead) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return errors.New("name is required")
	}
	if l.Status == "" {
		l.Status = StatusNew
	}
	if !l.Status.Valid() {
		return fmt.Errorf("invalid status %q", l.Status)
	}
	return nil
}

// sourceScores weights acquisition channels by observed conversion quality.
var sourceScores = map[string]int{
	"referral": 30,
	"event":    20,
	"webinar":  20,
	"website":  10,
	"cold":     0,
}

// ComputeScore derives the 0-100 fit score from completeness and source.
func (l *Lead) ComputeScore() int {
	score := 0
	if strings.TrimSpace(l.Email) != "" {
		score += 25
	}
	if strings.TrimSpace(l.Phone) != "" {
		score += 15
	}
	if strings.TrimSpace(l.Company) != "" {
		score += 20
	}
	score += sourceScores[strings.ToLower(strings.TrimSpace(l.Source))]
	if l.Status == StatusQualified {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}
