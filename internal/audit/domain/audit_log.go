package domain

import "time"

// AuditLog is one recorded action: who did what to which resource, from
// where. Metadata carries a JSON blob with action-specific detail.
type AuditLog struct {
	ID        string
	OrgID     string
	UserID    string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
