package domain

import (
	"errors"
	"time"
)

// Org represents an organization/tenant. Every CRM entity is scoped to one org.
type Org struct {
	ID        string
	Name      string
	Status    OrgStatus
	Plan      Plan
	CreatedAt time.Time
}

type OrgStatus string

const (
	OrgStatusActive    OrgStatus = "active"
	OrgStatusSuspended OrgStatus = "suspended"
)

// Plan is the subscription tier; it gates nothing in this service yet but is
// carried for billing and connector limits.
type Plan string

const (
	PlanStarter    Plan = "starter"
	PlanGrowth     Plan = "growth"
	PlanEnterprise Plan = "enterprise"
)

// Validate validates the organization for persistence. Returns an error describing the first validation failure.
func (o *Org) Validate() error {
	if o.Name == "" {
		return errors.New("name is required")
	}
	if o.Status == "" {
		o.Status = OrgStatusActive
	}
	if o.Plan == "" {
		o.Plan = PlanStarter
	}
	switch o.Plan {
	case PlanStarter, PlanGrowth, PlanEnterprise:
	default:
		return errors.New("unknown plan")
	}
	return nil
}
