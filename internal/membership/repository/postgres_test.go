package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"fulqrun/backend/internal/membership/domain"
)

type fakeRow struct {
	values []any
}

func (f *fakeRow) Scan(dest ...any) error {
	if len(dest) != len(f.values) {
		return fmt.Errorf("scan got %d dests, fixture has %d values", len(dest), len(f.values))
	}
	for i := range dest {
		switch d := dest[i].(type) {
		case *string:
			*d = f.values[i].(string)
		case *domain.Role:
			*d = domain.Role(f.values[i].(string))
		case *time.Time:
			*d = f.values[i].(time.Time)
		default:
			return fmt.Errorf("unexpected dest type %T at index %d", dest[i], i)
		}
	}
	return nil
}

func TestScanMembershipIncludesID(t *testing.T) {
	now := time.Now().UTC()
	row := &fakeRow{values: []any{"mem-1", "user-1", "org-1", "admin", now}}

	// scanMembership must consume exactly the columns selected.
	cols := strings.Split(membershipColumns, ", ")
	if len(row.values) != len(cols) {
		t.Fatalf("fixture has %d values, membershipColumns has %d", len(row.values), len(cols))
	}
	if cols[0] != "id" {
		t.Fatalf("first column = %q, want %q", cols[0], "id")
	}

	m, err := scanMembership(row)
	if err != nil {
		t.Fatalf("scanMembership: %v", err)
	}
	if m.ID != "mem-1" {
		t.Errorf("ID = %q, want %q", m.ID, "mem-1")
	}
	if m.UserID != "user-1" || m.OrgID != "org-1" {
		t.Errorf("user/org = %q/%q, want user-1/org-1", m.UserID, m.OrgID)
	}
	if !m.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", m.CreatedAt, now)
	}
}
