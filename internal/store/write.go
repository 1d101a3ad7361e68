package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/georeplay/internal/replay"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// AppendPosition appends an entity location sample.
func (s *Store) AppendPosition(ctx context.Context, p replay.EntityPosition) error {
	if err := appendPosition(ctx, s.db, p); err != nil {
		return fmt.Errorf("append position: %w", err)
	}
	return nil
}

// AppendZoneAudit appends a zone audit entry. Unknown actions are rejected.
func (s *Store) AppendZoneAudit(ctx context.Context, e replay.ZoneAuditEntry) error {
	if err := appendZoneAudit(ctx, s.db, e); err != nil {
		return fmt.Errorf("append zone audit: %w", err)
	}
	return nil
}

// AppendEvent appends a geo event.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
func (s *Store) AppendEvent(ctx context.Context, ev replay.GeoEvent) error {
	if err := appendEvent(ctx, s.db, ev); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ImportStats counts the records written by ImportDataSource.
type ImportStats struct {
	Positions int `json:"positions"`
	ZoneAudit int `json:"zone_audit"`
	Events    int `json:"events"`
}

// ImportDataSource appends every record of ds in a single transaction.
// Records are written in slice order, which becomes their arrival order.
// On any error nothing is written.
func (s *Store) ImportDataSource(ctx context.Context, ds replay.DataSource) (ImportStats, error) {
	var stats ImportStats

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for i, p := range ds.EntityHistory {
		if err := appendPosition(ctx, tx, p); err != nil {
			return ImportStats{}, fmt.Errorf("import position %d: %w", i, err)
		}
	}
	for i, e := range ds.ZoneAuditLog {
		if err := appendZoneAudit(ctx, tx, e); err != nil {
			return ImportStats{}, fmt.Errorf("import zone audit %d: %w", i, err)
		}
	}
	for i, ev := range ds.EventLog {
		if err := appendEvent(ctx, tx, ev); err != nil {
			return ImportStats{}, fmt.Errorf("import event %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportStats{}, fmt.Errorf("commit import: %w", err)
	}

	stats.Positions = len(ds.EntityHistory)
	stats.ZoneAudit = len(ds.ZoneAuditLog)
	stats.Events = len(ds.EventLog)
	return stats, nil
}

func appendPosition(ctx context.Context, db execer, p replay.EntityPosition) error {
	if p.EntityID == "" {
		return fmt.Errorf("entity id is required")
	}
	if p.CellIndex == "" {
		return fmt.Errorf("entity %s: cell index is required", p.EntityID)
	}
	meta, err := marshalObject(p.Metadata)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO entity_positions
		(entity_id, entity_kind, lat, lng, cell_index, ts, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		p.EntityID,
		p.EntityKind,
		p.Lat,
		p.Lng,
		p.CellIndex,
		toNanos(p.Timestamp),
		meta,
	)
	return err
}

func appendZoneAudit(ctx context.Context, db execer, e replay.ZoneAuditEntry) error {
	if e.ZoneID == "" {
		return fmt.Errorf("zone id is required")
	}
	if !e.Action.Valid() {
		return fmt.Errorf("zone %s: unknown action %q", e.ZoneID, e.Action)
	}
	before, err := marshalSnapshot(e.Before)
	if err != nil {
		return err
	}
	after, err := marshalSnapshot(e.After)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO zone_audit_log
		(zone_id, action, ts, before_snap, after_snap, user_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		e.ZoneID,
		string(e.Action),
		toNanos(e.Timestamp),
		before,
		after,
		e.UserID,
	)
	return err
}

func appendEvent(ctx context.Context, db execer, ev replay.GeoEvent) error {
	if ev.ID == "" {
		return fmt.Errorf("event id is required")
	}
	payload, err := marshalObject(ev.Payload)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO geo_events (id, ts, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		ev.ID,
		toNanos(ev.Timestamp),
		payload,
	)
	return err
}
