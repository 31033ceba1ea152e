// Package service owns dashboard layouts and the concurrent widget data
// fan-out.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fulqrun/backend/internal/dashboard/domain"
	"fulqrun/backend/internal/dashboard/repository"
)

var (
	ErrNotFound = errors.New("dashboard not found")
	ErrNotOwner = errors.New("dashboard belongs to another user")
)

// Source fetches the data behind one widget kind. Config is the widget's
// opaque config blob.
type Source func(ctx context.Context, orgID, userID string, config json.RawMessage) (any, error)

// widgetTimeout bounds a single widget query during fan-out.
const widgetTimeout = 3 * time.Second

// Service owns dashboard CRUD and resolves widget data through registered sources.
type Service struct {
	repo    repository.Repository
	sources map[string]Source
}

func New(repo repository.Repository, sources map[string]Source) *Service {
	if sources == nil {
		sources = map[string]Source{}
	}
	return &Service{repo: repo, sources: sources}
}

// LayoutInput carries the writable dashboard fields.
type LayoutInput struct {
	Name    string
	Widgets []domain.Widget
}

func (s *Service) Create(ctx context.Context, orgID, userID string, in LayoutInput) (*domain.Dashboard, error) {
	now := time.Now().UTC()
	d := &domain.Dashboard{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		UserID:    userID,
		Name:      in.Name,
		Widgets:   in.Widgets,
		CreatedAt: now,
		UpdatedAt: now,
	}
	stampWidgetIDs(d.Widgets)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Get returns a dashboard owned by userID; other users' layouts are invisible.
func (s *Service) Get(ctx context.Context, orgID, userID, id string) (*domain.Dashboard, error) {
	d, err := s.repo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNotFound
	}
	if d.UserID != userID {
		return nil, ErrNotOwner
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, orgID, userID string, limit, offset int32) ([]*domain.Dashboard, error) {
	return s.repo.ListByUser(ctx, orgID, userID, limit, offset)
}

func (s *Service) Update(ctx context.Context, orgID, userID, id string, in LayoutInput) (*domain.Dashboard, error) {
	d, err := s.Get(ctx, orgID, userID, id)
	if err != nil {
		return nil, err
	}
	d.Name = in.Name
	d.Widgets = in.Widgets
	stampWidgetIDs(d.Widgets)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	d.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Delete(ctx context.Context, orgID, userID, id string) error {
	if _, err := s.Get(ctx, orgID, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, orgID, id)
}

// WidgetData is one widget's resolved payload. Exactly one of Data or Error
// is set.
type WidgetData struct {
	WidgetID string `json:"widget_id"`
	Kind     string `json:"kind"`
	Data     any    `json:"data,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Data resolves every widget of a dashboard concurrently. A slow or failing
// widget degrades to an error entry; the response as a whole still succeeds.
func (s *Service) Data(ctx context.Context, orgID, userID, id string) ([]WidgetData, error) {
	d, err := s.Get(ctx, orgID, userID, id)
	if err != nil {
		return nil, err
	}

	out := make([]WidgetData, len(d.Widgets))
	g, gctx := errgroup.WithContext(ctx)
	for i, w := range d.Widgets {
		g.Go(func() error {
			out[i] = s.resolve(gctx, orgID, userID, w)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) resolve(ctx context.Context, orgID, userID string, w domain.Widget) WidgetData {
	res := WidgetData{WidgetID: w.ID, Kind: w.Kind}
	src, ok := s.sources[w.Kind]
	if !ok {
		res.Error = fmt.Sprintf("unknown widget kind %q", w.Kind)
		return res
	}
	ctx, cancel := context.WithTimeout(ctx, widgetTimeout)
	defer cancel()
	data, err := src(ctx, orgID, userID, w.Config)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Data = data
	return res
}

func stampWidgetIDs(widgets []domain.Widget) {
	for i := range widgets {
		if widgets[i].ID == "" {
			widgets[i].ID = uuid.New().String()
		}
	}
}
