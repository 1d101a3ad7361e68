package dataset

import (
	"fmt"
	"time"

	"github.com/roach88/georeplay/internal/geo"
	"github.com/roach88/georeplay/internal/replay"
)

// File is the on-disk dataset layout shared by YAML and CUE.
type File struct {
	Start     string      `yaml:"start" json:"start"`
	End       string      `yaml:"end" json:"end"`
	Positions []Position  `yaml:"positions" json:"positions"`
	Zones     []ZoneEntry `yaml:"zones" json:"zones"`
	Events    []Event     `yaml:"events" json:"events"`
}

// Position is one entity sample.
type Position struct {
	EntityID string         `yaml:"entity_id" json:"entity_id"`
	Kind     string         `yaml:"kind" json:"kind"`
	Lat      float64        `yaml:"lat" json:"lat"`
	Lng      float64        `yaml:"lng" json:"lng"`
	Cell     string         `yaml:"cell" json:"cell"`
	At       string         `yaml:"at" json:"at"`
	Metadata map[string]any `yaml:"metadata" json:"metadata"`
}

// ZoneEntry is one zone audit record.
type ZoneEntry struct {
	ZoneID string    `yaml:"zone_id" json:"zone_id"`
	Action string    `yaml:"action" json:"action"`
	At     string    `yaml:"at" json:"at"`
	User   string    `yaml:"user" json:"user"`
	Before *Snapshot `yaml:"before" json:"before"`
	After  *Snapshot `yaml:"after" json:"after"`
}

// Snapshot is a partial zone state.
type Snapshot struct {
	Name      *string  `yaml:"name" json:"name"`
	Active    *bool    `yaml:"active" json:"active"`
	GridCells []string `yaml:"grid_cells" json:"grid_cells"`
	Tags      []string `yaml:"tags" json:"tags"`
}

// Event is one logged occurrence.
type Event struct {
	ID      string         `yaml:"id" json:"id"`
	At      string         `yaml:"at" json:"at"`
	Payload map[string]any `yaml:"payload" json:"payload"`
}

// DataSource converts the file into a replay data source. Cell indices
// missing from positions are derived at level.
func (f *File) DataSource(level int) (replay.DataSource, error) {
	start, err := parseTime("start", f.Start)
	if err != nil {
		return replay.DataSource{}, err
	}
	end, err := parseTime("end", f.End)
	if err != nil {
		return replay.DataSource{}, err
	}
	if start.After(end) {
		return replay.DataSource{}, fmt.Errorf("start %s is after end %s", f.Start, f.End)
	}

	ds := replay.DataSource{
		StartTime:     start,
		EndTime:       end,
		EntityHistory: make([]replay.EntityPosition, 0, len(f.Positions)),
		ZoneAuditLog:  make([]replay.ZoneAuditEntry, 0, len(f.Zones)),
		EventLog:      make([]replay.GeoEvent, 0, len(f.Events)),
	}

	for i, p := range f.Positions {
		pos, err := p.toReplay(level)
		if err != nil {
			return replay.DataSource{}, fmt.Errorf("positions[%d]: %w", i, err)
		}
		ds.EntityHistory = append(ds.EntityHistory, pos)
	}
	for i, z := range f.Zones {
		entry, err := z.toReplay()
		if err != nil {
			return replay.DataSource{}, fmt.Errorf("zones[%d]: %w", i, err)
		}
		ds.ZoneAuditLog = append(ds.ZoneAuditLog, entry)
	}
	for i, e := range f.Events {
		if e.ID == "" {
			return replay.DataSource{}, fmt.Errorf("events[%d]: id is required", i)
		}
		ts, err := parseTime("at", e.At)
		if err != nil {
			return replay.DataSource{}, fmt.Errorf("events[%d]: %w", i, err)
		}
		ds.EventLog = append(ds.EventLog, replay.GeoEvent{ID: e.ID, Timestamp: ts, Payload: e.Payload})
	}

	return ds, nil
}

func (p Position) toReplay(level int) (replay.EntityPosition, error) {
	if p.EntityID == "" {
		return replay.EntityPosition{}, fmt.Errorf("entity_id is required")
	}
	ts, err := parseTime("at", p.At)
	if err != nil {
		return replay.EntityPosition{}, err
	}
	if !geo.ValidLatLng(p.Lat, p.Lng) {
		return replay.EntityPosition{}, fmt.Errorf("entity %s: invalid coordinate (%g, %g)", p.EntityID, p.Lat, p.Lng)
	}

	cell := p.Cell
	if cell == "" {
		if cell, err = geo.CellIndex(p.Lat, p.Lng, level); err != nil {
			return replay.EntityPosition{}, fmt.Errorf("entity %s: %w", p.EntityID, err)
		}
	}

	return replay.EntityPosition{
		EntityID:   p.EntityID,
		EntityKind: p.Kind,
		Lat:        p.Lat,
		Lng:        p.Lng,
		CellIndex:  cell,
		Timestamp:  ts,
		Metadata:   p.Metadata,
	}, nil
}

func (z ZoneEntry) toReplay() (replay.ZoneAuditEntry, error) {
	if z.ZoneID == "" {
		return replay.ZoneAuditEntry{}, fmt.Errorf("zone_id is required")
	}
	action := replay.ZoneAction(z.Action)
	if !action.Valid() {
		return replay.ZoneAuditEntry{}, fmt.Errorf("zone %s: unknown action %q", z.ZoneID, z.Action)
	}
	ts, err := parseTime("at", z.At)
	if err != nil {
		return replay.ZoneAuditEntry{}, err
	}
	return replay.ZoneAuditEntry{
		ZoneID:    z.ZoneID,
		Action:    action,
		Timestamp: ts,
		Before:    z.Before.toReplay(),
		After:     z.After.toReplay(),
		UserID:    z.User,
	}, nil
}

func (s *Snapshot) toReplay() *replay.ZoneSnapshot {
	if s == nil {
		return nil
	}
	return &replay.ZoneSnapshot{
		Name:      s.Name,
		Active:    s.Active,
		GridCells: s.GridCells,
		Tags:      s.Tags,
	}
}

func parseTime(field, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return t.UTC(), nil
}
