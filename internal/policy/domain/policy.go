package domain

import (
	"errors"
	"strings"
	"time"
)

// Policy is an org-level Rego authorization policy layered over the built-in
// role ladder.
type Policy struct {
	ID        string
	OrgID     string
	Name      string
	Rules     string // Rego source, package fulqrun.authz
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Policy) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(p.Rules) == "" {
		return errors.New("rules are required")
	}
	return nil
}
