package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/georeplay/internal/canon"
	"github.com/roach88/georeplay/internal/replay"
)

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

// marshalObject converts a JSON object column to canonical TEXT.
// A nil map is stored as "{}".
func marshalObject(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := canon.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal object: %w", err)
	}
	return string(data), nil
}

// unmarshalObject parses a JSON object column. "{}" and "" yield nil so
// records round-trip with their original absent metadata.
func unmarshalObject(data string) (map[string]any, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("unmarshal object: %w", err)
	}
	return m, nil
}

// marshalSnapshot converts a zone snapshot to canonical TEXT, or NULL when absent.
// Empty grid_cells and tags lists are written as [] so a clearing update
// reads back as a clearing update.
func marshalSnapshot(snap *replay.ZoneSnapshot) (sql.NullString, error) {
	if snap == nil {
		return sql.NullString{}, nil
	}
	data, err := canon.Marshal(snap)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalSnapshot(col sql.NullString) (*replay.ZoneSnapshot, error) {
	if !col.Valid {
		return nil, nil
	}
	var snap replay.ZoneSnapshot
	if err := json.Unmarshal([]byte(col.String), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}
