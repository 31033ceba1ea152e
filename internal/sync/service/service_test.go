package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"fulqrun/backend/internal/sync/domain"
	"fulqrun/backend/internal/sync/repository"
)

type memDevices struct {
	mu      sync.Mutex
	devices map[string]*domain.Device
}

func newMemDevices() *memDevices {
	return &memDevices{devices: make(map[string]*domain.Device)}
}

func (m *memDevices) GetByID(_ context.Context, orgID, id string) (*domain.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[id]
	if !ok || d.OrgID != orgID {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (m *memDevices) GetByFingerprint(_ context.Context, orgID, userID, fingerprint string) (*domain.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.devices {
		if d.OrgID == orgID && d.UserID == userID && d.Fingerprint == fingerprint {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memDevices) Create(_ context.Context, d *domain.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.devices[d.ID] = &cp
	return nil
}

func (m *memDevices) UpdateCursor(_ context.Context, orgID, id string, cursor int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[id]
	if !ok || d.OrgID != orgID {
		return errors.New("no such device")
	}
	d.Cursor = cursor
	d.LastSyncAt = &at
	return nil
}

type memChangelog struct {
	mu      sync.Mutex
	entries []*domain.LogEntry
}

func (m *memChangelog) RecordChange(_ context.Context, orgID, entityType, entityID, op string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	m.entries = append(m.entries, &domain.LogEntry{
		Seq:        int64(len(m.entries) + 1),
		OrgID:      orgID,
		EntityType: entityType,
		EntityID:   entityID,
		Op:         domain.Op(op),
		Payload:    raw,
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

func (m *memChangelog) ListSince(_ context.Context, orgID string, cursor int64, limit int32) ([]*domain.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.LogEntry
	for _, e := range m.entries {
		if e.OrgID == orgID && e.Seq > cursor {
			out = append(out, e)
		}
		if len(out) == int(limit) {
			break
		}
	}
	return out, nil
}

var _ repository.ChangelogRepository = (*memChangelog)(nil)

type memQueue struct {
	mu   sync.Mutex
	seen map[string]bool
	pub  []*domain.Change
}

func newMemQueue() *memQueue {
	return &memQueue{seen: make(map[string]bool)}
}

func (m *memQueue) Publish(_ context.Context, c *domain.Change) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[c.ChangeID] {
		return false, nil
	}
	m.seen[c.ChangeID] = true
	cp := *c
	m.pub = append(m.pub, &cp)
	return true, nil
}

func seedChangelog(cl *memChangelog, orgID string, n int) {
	for i := 0; i < n; i++ {
		_ = cl.RecordChange(context.Background(), orgID, "lead", fmt.Sprintf("lead-%d", i), "update", map[string]string{"name": "x"})
	}
}

func TestRegisterDeviceIdempotent(t *testing.T) {
	svc := New(newMemDevices(), &memChangelog{}, newMemQueue(), 0)

	d1, err := svc.RegisterDevice(context.Background(), "org-1", "user-1", "fp-abc", "ios")
	if err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}
	d2, err := svc.RegisterDevice(context.Background(), "org-1", "user-1", "fp-abc", "ios")
	if err != nil {
		t.Fatalf("RegisterDevice() again error = %v", err)
	}
	if d1.ID != d2.ID {
		t.Errorf("re-registration device ID = %q, want %q", d2.ID, d1.ID)
	}

	d3, err := svc.RegisterDevice(context.Background(), "org-1", "user-2", "fp-abc", "ios")
	if err != nil {
		t.Fatalf("RegisterDevice() other user error = %v", err)
	}
	if d3.ID == d1.ID {
		t.Error("same fingerprint for a different user should get its own device")
	}
}

func TestRegisterDeviceRequiresFingerprint(t *testing.T) {
	svc := New(newMemDevices(), &memChangelog{}, newMemQueue(), 0)
	if _, err := svc.RegisterDevice(context.Background(), "org-1", "user-1", "  ", "ios"); err == nil {
		t.Error("RegisterDevice() with blank fingerprint should fail")
	}
}

func TestPushStampsAndDeduplicates(t *testing.T) {
	devices := newMemDevices()
	q := newMemQueue()
	svc := New(devices, &memChangelog{}, q, 0)

	d, err := svc.RegisterDevice(context.Background(), "org-1", "user-1", "fp-abc", "android")
	if err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}

	changes := []domain.Change{
		{ChangeID: "c1", EntityType: "lead", EntityID: "l1", Op: domain.OpCreate, ClientSeq: 1, OccurredAt: time.Now()},
		{ChangeID: "c2", EntityType: "widget", EntityID: "w1", Op: domain.OpCreate, ClientSeq: 2, OccurredAt: time.Now()},
		{ChangeID: "c1", EntityType: "lead", EntityID: "l1", Op: domain.OpCreate, ClientSeq: 1, OccurredAt: time.Now()},
	}
	res, err := svc.Push(context.Background(), "org-1", "user-1", d.ID, changes)
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if len(res.Accepted) != 1 || res.Accepted[0] != "c1" {
		t.Errorf("Accepted = %v, want [c1]", res.Accepted)
	}
	if len(res.Duplicates) != 1 || res.Duplicates[0] != "c1" {
		t.Errorf("Duplicates = %v, want [c1]", res.Duplicates)
	}
	if len(res.Rejected) != 1 || res.Rejected[0].ChangeID != "c2" {
		t.Errorf("Rejected = %v, want c2", res.Rejected)
	}

	if len(q.pub) != 1 {
		t.Fatalf("published %d changes, want 1", len(q.pub))
	}
	got := q.pub[0]
	if got.OrgID != "org-1" || got.DeviceID != d.ID || got.UserID != "user-1" {
		t.Errorf("published change not stamped: org=%q device=%q user=%q", got.OrgID, got.DeviceID, got.UserID)
	}
}

func TestPushRejectsForeignDevice(t *testing.T) {
	devices := newMemDevices()
	svc := New(devices, &memChangelog{}, newMemQueue(), 0)

	d, _ := svc.RegisterDevice(context.Background(), "org-1", "user-1", "fp-abc", "ios")

	if _, err := svc.Push(context.Background(), "org-1", "user-2", d.ID, nil); !errors.Is(err, ErrDeviceOwner) {
		t.Errorf("Push() by other user error = %v, want ErrDeviceOwner", err)
	}
	if _, err := svc.Push(context.Background(), "org-2", "user-1", d.ID, nil); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Push() from other org error = %v, want ErrDeviceNotFound", err)
	}
}

func TestPullAdvancesCursor(t *testing.T) {
	devices := newMemDevices()
	cl := &memChangelog{}
	svc := New(devices, cl, newMemQueue(), 0)

	d, _ := svc.RegisterDevice(context.Background(), "org-1", "user-1", "fp-abc", "ios")
	seedChangelog(cl, "org-1", 5)

	res, err := svc.Pull(context.Background(), "org-1", "user-1", d.ID, nil, 3)
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if len(res.Entries) != 3 {
		t.Fatalf("first pull returned %d entries, want 3", len(res.Entries))
	}
	if res.Cursor != 3 {
		t.Errorf("cursor = %d, want 3", res.Cursor)
	}
	if !res.HasMore {
		t.Error("HasMore = false, want true")
	}

	res, err = svc.Pull(context.Background(), "org-1", "user-1", d.ID, nil, 10)
	if err != nil {
		t.Fatalf("second Pull() error = %v", err)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("second pull returned %d entries, want 2", len(res.Entries))
	}
	if res.Cursor != 5 {
		t.Errorf("cursor = %d, want 5", res.Cursor)
	}
	if res.HasMore {
		t.Error("HasMore = true, want false")
	}

	// Explicit cursor override rewinds.
	res, err = svc.Pull(context.Background(), "org-1", "user-1", d.ID, ptrInt64(0), 10)
	if err != nil {
		t.Fatalf("rewind Pull() error = %v", err)
	}
	if len(res.Entries) != 5 {
		t.Errorf("rewind pull returned %d entries, want 5", len(res.Entries))
	}
}

func ptrInt64(v int64) *int64 { return &v }

func TestPullUsesConfiguredPageSize(t *testing.T) {
	devices := newMemDevices()
	cl := &memChangelog{}
	svc := New(devices, cl, newMemQueue(), 2)

	d, _ := svc.RegisterDevice(context.Background(), "org-1", "user-1", "fp-abc", "ios")
	seedChangelog(cl, "org-1", 5)

	// No limit requested: the configured page size applies.
	res, err := svc.Pull(context.Background(), "org-1", "user-1", d.ID, nil, 0)
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("pull returned %d entries, want configured 2", len(res.Entries))
	}
	if !res.HasMore {
		t.Error("HasMore = false, want true")
	}

	// Oversized request falls back to the configured page size too.
	res, err = svc.Pull(context.Background(), "org-1", "user-1", d.ID, ptrInt64(0), MaxPullLimit+1)
	if err != nil {
		t.Fatalf("oversized Pull() error = %v", err)
	}
	if len(res.Entries) != 2 {
		t.Errorf("oversized pull returned %d entries, want 2", len(res.Entries))
	}
}

func TestNewClampsPullLimit(t *testing.T) {
	svc := New(newMemDevices(), &memChangelog{}, newMemQueue(), MaxPullLimit+100)
	if svc.pullLimit != DefaultPullLimit {
		t.Errorf("pullLimit = %d, want %d", svc.pullLimit, DefaultPullLimit)
	}
	svc = New(newMemDevices(), &memChangelog{}, newMemQueue(), 0)
	if svc.pullLimit != DefaultPullLimit {
		t.Errorf("pullLimit = %d, want %d", svc.pullLimit, DefaultPullLimit)
	}
}
