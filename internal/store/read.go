package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/georeplay/internal/replay"
)

// ReadDataSource materializes the closed dataset for a replay window.
//
// Every record with timestamp <= end is returned, including history before
// start: zone and entity state at start depends on it. Records are ordered
// by ts ASC, seq ASC. Slices are empty, never nil.
//
// seq is the insertion rowid. Records that share a timestamp come back in
// the order they were appended, which matches the stable sort the engine
// applies to a dataset loaded straight from a file. A store-fed engine and
// a file-fed engine therefore fold same-instant zone mutations identically.
func (s *Store) ReadDataSource(ctx context.Context, start, end time.Time) (replay.DataSource, error) {
	if start.After(end) {
		return replay.DataSource{}, fmt.Errorf("read data source: start %s is after end %s",
			start.UTC().Format(time.RFC3339Nano), end.UTC().Format(time.RFC3339Nano))
	}
	cutoff := toNanos(end)

	positions, err := s.readPositions(ctx, cutoff)
	if err != nil {
		return replay.DataSource{}, fmt.Errorf("read data source: %w", err)
	}
	audit, err := s.readZoneAudit(ctx, cutoff)
	if err != nil {
		return replay.DataSource{}, fmt.Errorf("read data source: %w", err)
	}
	events, err := s.readEvents(ctx, cutoff)
	if err != nil {
		return replay.DataSource{}, fmt.Errorf("read data source: %w", err)
	}

	return replay.DataSource{
		EntityHistory: positions,
		ZoneAuditLog:  audit,
		EventLog:      events,
		StartTime:     start.UTC(),
		EndTime:       end.UTC(),
	}, nil
}

// Bounds returns the earliest and latest timestamp across all logs.
// ok is false when the store is empty.
func (s *Store) Bounds(ctx context.Context) (r replay.TimeRange, ok bool, err error) {
	var lo, hi sql.NullInt64
	err = s.db.QueryRowContext(ctx, `
		SELECT MIN(ts), MAX(ts) FROM (
			SELECT ts FROM entity_positions
			UNION ALL SELECT ts FROM zone_audit_log
			UNION ALL SELECT ts FROM geo_events
		)
	`).Scan(&lo, &hi)
	if err != nil {
		return replay.TimeRange{}, false, fmt.Errorf("query bounds: %w", err)
	}
	if !lo.Valid || !hi.Valid {
		return replay.TimeRange{}, false, nil
	}
	return replay.TimeRange{Start: fromNanos(lo.Int64), End: fromNanos(hi.Int64)}, true, nil
}

// ZoneHistory returns the audit entries of one zone in arrival order.
func (s *Store) ZoneHistory(ctx context.Context, zoneID string) ([]replay.ZoneAuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT zone_id, action, ts, before_snap, after_snap, user_id
		FROM zone_audit_log
		WHERE zone_id = ?
		ORDER BY ts ASC, seq ASC
	`, zoneID)
	if err != nil {
		return nil, fmt.Errorf("query zone history: %w", err)
	}
	defer rows.Close()
	return scanZoneAudit(rows)
}

func (s *Store) readPositions(ctx context.Context, cutoff int64) ([]replay.EntityPosition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity_id, entity_kind, lat, lng, cell_index, ts, metadata
		FROM entity_positions
		WHERE ts <= ?
		ORDER BY ts ASC, seq ASC
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	positions := []replay.EntityPosition{}
	for rows.Next() {
		var (
			p    replay.EntityPosition
			ts   int64
			meta string
		)
		if err := rows.Scan(&p.EntityID, &p.EntityKind, &p.Lat, &p.Lng, &p.CellIndex, &ts, &meta); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		p.Timestamp = fromNanos(ts)
		if p.Metadata, err = unmarshalObject(meta); err != nil {
			return nil, fmt.Errorf("position %s: %w", p.EntityID, err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate positions: %w", err)
	}
	return positions, nil
}

func (s *Store) readZoneAudit(ctx context.Context, cutoff int64) ([]replay.ZoneAuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT zone_id, action, ts, before_snap, after_snap, user_id
		FROM zone_audit_log
		WHERE ts <= ?
		ORDER BY ts ASC, seq ASC
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query zone audit: %w", err)
	}
	defer rows.Close()
	return scanZoneAudit(rows)
}

func scanZoneAudit(rows *sql.Rows) ([]replay.ZoneAuditEntry, error) {
	entries := []replay.ZoneAuditEntry{}
	for rows.Next() {
		var (
			e             replay.ZoneAuditEntry
			action        string
			ts            int64
			before, after sql.NullString
		)
		if err := rows.Scan(&e.ZoneID, &action, &ts, &before, &after, &e.UserID); err != nil {
			return nil, fmt.Errorf("scan zone audit: %w", err)
		}
		e.Action = replay.ZoneAction(action)
		e.Timestamp = fromNanos(ts)

		var err error
		if e.Before, err = unmarshalSnapshot(before); err != nil {
			return nil, fmt.Errorf("zone %s: %w", e.ZoneID, err)
		}
		if e.After, err = unmarshalSnapshot(after); err != nil {
			return nil, fmt.Errorf("zone %s: %w", e.ZoneID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate zone audit: %w", err)
	}
	return entries, nil
}

func (s *Store) readEvents(ctx context.Context, cutoff int64) ([]replay.GeoEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, payload
		FROM geo_events
		WHERE ts <= ?
		ORDER BY ts ASC, seq ASC
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []replay.GeoEvent{}
	for rows.Next() {
		var (
			ev      replay.GeoEvent
			ts      int64
			payload string
		)
		if err := rows.Scan(&ev.ID, &ts, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Timestamp = fromNanos(ts)
		if ev.Payload, err = unmarshalObject(payload); err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.ID, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
