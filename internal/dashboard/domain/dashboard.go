package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Position places a widget on the dashboard grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Widget is one tile of a dashboard. Kind selects the data source; Config is
// passed to it opaquely.
type Widget struct {
	ID       string          `json:"id"`
	Kind     string          `json:"kind"`
	Title    string          `json:"title"`
	Position Position        `json:"position"`
	Config   json.RawMessage `json:"config,omitempty"`
}

// Dashboard is a user's saved widget layout.
type Dashboard struct {
	ID        string
	OrgID     string
	UserID    string
	Name      string
	Widgets   []Widget
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (d *Dashboard) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("name is required")
	}
	for i := range d.Widgets {
		if strings.TrimSpace(d.Widgets[i].Kind) == "" {
			return fmt.Errorf("widget %d: kind is required", i)
		}
	}
	return nil
}
