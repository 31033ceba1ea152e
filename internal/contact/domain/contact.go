package domain

import (
	"errors"
	"strings"
	"time"
)

// Contact is a person attached to an org's book of business.
type Contact struct {
	ID        string
	OrgID     string
	Name      string
	Email     string
	Phone     string
	Title     string
	Company   string
	LeadID    string // set when the contact came from a converted lead
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}
