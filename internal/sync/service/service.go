// Package service implements the offline sync protocol: device registration,
// change push into the visibility-timeout queue, and changelog pull.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"fulqrun/backend/internal/sync/domain"
	"fulqrun/backend/internal/sync/repository"
)

// Sentinel errors; handler maps them to HTTP status codes.
var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrDeviceOwner    = errors.New("device belongs to a different user")
)

// Queuer accepts pushed changes for ordered, at-least-once application.
type Queuer interface {
	Publish(ctx context.Context, c *domain.Change) (bool, error)
}

// DefaultPullLimit is the pull page size when none is configured.
const DefaultPullLimit = 100

// MaxPullLimit caps the pull page size regardless of configuration.
const MaxPullLimit = 500

// Service coordinates devices, the push queue, and the pull changelog.
type Service struct {
	devices   repository.DeviceRepository
	changelog repository.ChangelogRepository
	queue     Queuer
	pullLimit int32
}

// New builds the sync service. pullLimit is the page size used when a pull
// request does not ask for one; zero or out-of-range values fall back to
// DefaultPullLimit.
func New(devices repository.DeviceRepository, changelog repository.ChangelogRepository, queue Queuer, pullLimit int32) *Service {
	if pullLimit <= 0 || pullLimit > MaxPullLimit {
		pullLimit = DefaultPullLimit
	}
	return &Service{devices: devices, changelog: changelog, queue: queue, pullLimit: pullLimit}
}

// RegisterDevice registers a mobile client, or returns the existing device
// when the same user re-registers the same fingerprint. Idempotent so a
// reinstalled app keeps its cursor.
func (s *Service) RegisterDevice(ctx context.Context, orgID, userID, fingerprint, platform string) (*domain.Device, error) {
	d := &domain.Device{Fingerprint: fingerprint, Platform: platform}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.devices.GetByFingerprint(ctx, orgID, userID, fingerprint)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	d.ID = uuid.New().String()
	d.OrgID = orgID
	d.UserID = userID
	d.CreatedAt = time.Now().UTC()
	if err := s.devices.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// PushResult reports the outcome of each pushed change.
type PushResult struct {
	Accepted   []string         `json:"accepted"`
	Duplicates []string         `json:"duplicates"`
	Rejected   []RejectedChange `json:"rejected"`
}

// RejectedChange names a change that failed validation and why.
type RejectedChange struct {
	ChangeID string `json:"change_id"`
	Reason   string `json:"reason"`
}

// Push enqueues a batch of offline changes from one device. Each change is
// validated and stamped with the authenticated org, device, and user before
// publish; replays of an already-queued change_id are reported as duplicates.
func (s *Service) Push(ctx context.Context, orgID, userID, deviceID string, changes []domain.Change) (*PushResult, error) {
	d, err := s.devices.GetByID(ctx, orgID, deviceID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDeviceNotFound
	}
	if d.UserID != userID {
		return nil, ErrDeviceOwner
	}

	res := &PushResult{Accepted: []string{}, Duplicates: []string{}, Rejected: []RejectedChange{}}
	for i := range changes {
		c := changes[i]
		if err := c.Validate(); err != nil {
			res.Rejected = append(res.Rejected, RejectedChange{ChangeID: c.ChangeID, Reason: err.Error()})
			continue
		}
		c.OrgID = orgID
		c.DeviceID = deviceID
		c.UserID = userID
		inserted, err := s.queue.Publish(ctx, &c)
		if err != nil {
			return nil, err
		}
		if inserted {
			res.Accepted = append(res.Accepted, c.ChangeID)
		} else {
			res.Duplicates = append(res.Duplicates, c.ChangeID)
		}
	}
	return res, nil
}

// PullResult is a page of changelog entries plus the cursor to resume from.
type PullResult struct {
	Entries []*domain.LogEntry `json:"entries"`
	Cursor  int64              `json:"cursor"`
	HasMore bool               `json:"has_more"`
}

// Pull returns org changes after the device's cursor (or an explicit cursor
// override) and advances the device's cursor to the last entry returned.
func (s *Service) Pull(ctx context.Context, orgID, userID, deviceID string, cursor *int64, limit int32) (*PullResult, error) {
	d, err := s.devices.GetByID(ctx, orgID, deviceID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDeviceNotFound
	}
	if d.UserID != userID {
		return nil, ErrDeviceOwner
	}

	from := d.Cursor
	if cursor != nil {
		from = *cursor
	}
	if limit <= 0 || limit > MaxPullLimit {
		limit = s.pullLimit
	}
	// Fetch one extra row to learn whether more remain.
	entries, err := s.changelog.ListSince(ctx, orgID, from, limit+1)
	if err != nil {
		return nil, err
	}
	res := &PullResult{Entries: entries, Cursor: from}
	if len(entries) > int(limit) {
		res.Entries = entries[:limit]
		res.HasMore = true
	}
	if n := len(res.Entries); n > 0 {
		res.Cursor = res.Entries[n-1].Seq
	}
	if err := s.devices.UpdateCursor(ctx, orgID, deviceID, res.Cursor, time.Now().UTC()); err != nil {
		return nil, err
	}
	return res, nil
}
