package replay

import (
	"encoding/json"
	"time"
)

// EntityPosition is one historical location sample for a tracked entity.
type EntityPosition struct {
	EntityID   string         `json:"entity_id"`
	EntityKind string         `json:"entity_kind"`
	Lat        float64        `json:"lat"`
	Lng        float64        `json:"lng"`
	CellIndex  string         `json:"cell_index"`
	Timestamp  time.Time      `json:"timestamp"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// ZoneAction is the kind of mutation recorded by a zone audit entry.
type ZoneAction string

const (
	ZoneCreated     ZoneAction = "created"
	ZoneUpdated     ZoneAction = "updated"
	ZoneDeactivated ZoneAction = "deactivated"
	ZoneTagged      ZoneAction = "tagged"
)

// Valid reports whether a is one of the known actions.
func (a ZoneAction) Valid() bool {
	switch a {
	case ZoneCreated, ZoneUpdated, ZoneDeactivated, ZoneTagged:
		return true
	}
	return false
}

// ZoneSnapshot is a partial zone state attached to an audit entry.
// Nil fields were not part of the snapshot. A non-nil empty slice is a
// present field that clears the zone's cells or tags.
type ZoneSnapshot struct {
	Name      *string  `json:"name,omitempty"`
	Active    *bool    `json:"active,omitempty"`
	GridCells []string `json:"grid_cells,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// snapshotJSON is the encoded form of ZoneSnapshot. The slice fields are
// pointers so an empty list encodes as [] and an absent one is omitted.
type snapshotJSON struct {
	Name      *string   `json:"name,omitempty"`
	Active    *bool     `json:"active,omitempty"`
	GridCells *[]string `json:"grid_cells,omitempty"`
	Tags      *[]string `json:"tags,omitempty"`
}

// MarshalJSON keeps empty grid_cells and tags in the output.
func (s ZoneSnapshot) MarshalJSON() ([]byte, error) {
	w := snapshotJSON{Name: s.Name, Active: s.Active}
	if s.GridCells != nil {
		cells := s.GridCells
		w.GridCells = &cells
	}
	if s.Tags != nil {
		tags := s.Tags
		w.Tags = &tags
	}
	return json.Marshal(w)
}

// UnmarshalJSON restores presence: a field encoded as [] decodes to a
// non-nil empty slice and a missing field stays nil.
func (s *ZoneSnapshot) UnmarshalJSON(data []byte) error {
	var w snapshotJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = ZoneSnapshot{Name: w.Name, Active: w.Active}
	if w.GridCells != nil {
		s.GridCells = presentSlice(*w.GridCells)
	}
	if w.Tags != nil {
		s.Tags = presentSlice(*w.Tags)
	}
	return nil
}

func presentSlice(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// ZoneAuditEntry is one mutation in a zone's history.
type ZoneAuditEntry struct {
	ZoneID    string        `json:"zone_id"`
	Action    ZoneAction    `json:"action"`
	Timestamp time.Time     `json:"timestamp"`
	Before    *ZoneSnapshot `json:"before,omitempty"`
	After     *ZoneSnapshot `json:"after,omitempty"`
	UserID    string        `json:"user_id,omitempty"`
}

// Zone is a named, taggable spatial region derived by replay.
type Zone struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Active    bool     `json:"active"`
	GridCells []string `json:"grid_cells"`
	Tags      []string `json:"tags"`
}

// RiskLevel is a coarse ordinal classification of a grid cell.
type RiskLevel string

const (
	RiskNone   RiskLevel = "none"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Rank orders risk levels: none < low < medium < high.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	}
	return 0
}

// GridCellState is the derived annotation for one grid cell.
type GridCellState struct {
	CellIndex string    `json:"cell_index"`
	ZoneIDs   []string  `json:"zone_ids"`
	ZoneNames []string  `json:"zone_names"`
	Tags      []string  `json:"tags"`
	RiskLevel RiskLevel `json:"risk_level"`
	InZone    bool      `json:"in_zone"`
}

// GeoEvent is a discrete logged occurrence such as a geofence crossing.
type GeoEvent struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Frame is the complete reconstructed state at one timestamp.
type Frame struct {
	Timestamp time.Time        `json:"timestamp"`
	Entities  []EntityPosition `json:"entities"`
	Zones     []Zone           `json:"zones"`
	Cells     []GridCellState  `json:"cells"`
	Events    []GeoEvent       `json:"events"`
}

// DataSource is the closed dataset a replay session runs over.
type DataSource struct {
	EntityHistory []EntityPosition `json:"entity_history"`
	ZoneAuditLog  []ZoneAuditEntry `json:"zone_audit_log"`
	EventLog      []GeoEvent       `json:"event_log"`
	StartTime     time.Time        `json:"start_time"`
	EndTime       time.Time        `json:"end_time"`
}

// TimeRange is an inclusive [Start, End] interval.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
