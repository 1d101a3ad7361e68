// Package store provides SQLite-backed storage for the audit history that
// replay runs over.
//
// The store is append-only and holds three logs:
//   - entity_positions: location samples per tracked entity
//   - zone_audit_log: zone mutations with before/after snapshots
//   - geo_events: discrete occurrences such as geofence crossings
//
// # Ordering
//
// Timestamps are stored as Unix nanoseconds. Every row carries a seq
// (autoincrement) recording arrival order. All reads use
// ORDER BY ts ASC, seq ASC, so samples sharing a timestamp come back in the
// order they were written.
//
// # Snapshots
//
// JSON columns (metadata, snapshots, payloads) are written as canonical JSON
// so identical records are stored byte-identically.
//
// # Schema
//
// schema.sql creates the base tables. Later changes are entries in the
// migrations list, each applied once in a transaction that also bumps
// PRAGMA user_version. Open pragmas: WAL journal, synchronous=NORMAL,
// foreign keys on and a busy timeout (DefaultBusyTimeout unless
// WithBusyTimeout is given).
package store
