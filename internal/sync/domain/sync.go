package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Device is a registered mobile client. Cursor is the changelog sequence the
// device has pulled through.
type Device struct {
	ID          string
	OrgID       string
	UserID      string
	Fingerprint string
	Platform    string
	Cursor      int64
	LastSyncAt  *time.Time
	CreatedAt   time.Time
}

func (d *Device) Validate() error {
	if strings.TrimSpace(d.Fingerprint) == "" {
		return errors.New("fingerprint is required")
	}
	return nil
}

// Op is a change operation.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

func (o Op) Valid() bool {
	return o == OpCreate || o == OpUpdate || o == OpDelete
}

// EntityTypes lists the entities the mobile client may sync.
var EntityTypes = map[string]bool{
	"lead":        true,
	"contact":     true,
	"opportunity": true,
}

// Change is one offline mutation pushed by a device. ChangeID is
// client-generated and globally unique, which makes pushes idempotent.
type Change struct {
	ChangeID   string          `json:"change_id"`
	OrgID      string          `json:"-"`
	DeviceID   string          `json:"-"`
	UserID     string          `json:"-"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Op         Op              `json:"op"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	ClientSeq  int64           `json:"client_seq"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func (c *Change) Validate() error {
	if strings.TrimSpace(c.ChangeID) == "" {
		return errors.New("change_id is required")
	}
	if !EntityTypes[c.EntityType] {
		return errors.New("unknown entity_type")
	}
	if strings.TrimSpace(c.EntityID) == "" {
		return errors.New("entity_id is required")
	}
	if !c.Op.Valid() {
		return errors.New("op must be create, update, or delete")
	}
	if c.OccurredAt.IsZero() {
		return errors.New("occurred_at is required")
	}
	return nil
}

// QueueStatus tracks a queued change through its lifecycle.
type QueueStatus string

const (
	StatusPending QueueStatus = "pending"
	StatusApplied QueueStatus = "applied"
	StatusDead    QueueStatus = "dead"
)

// QueuedChange is a Change with its queue bookkeeping.
type QueuedChange struct {
	Change
	VisibleAt time.Time
	Attempts  int
	Status    QueueStatus
	CreatedAt time.Time
}

// LogEntry is one row of the org changelog that devices pull.
type LogEntry struct {
	Seq        int64           `json:"seq"`
	OrgID      string          `json:"-"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Op         Op              `json:"op"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
