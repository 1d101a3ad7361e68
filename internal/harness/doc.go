// Package harness runs replay scenarios as executable contract tests.
//
// A scenario names a dataset file, an optional replay window, a list of
// checks evaluated against reconstructed frames, and a list of snapshot
// times whose frames are compared against golden files.
//
// # Scenario Format
//
//	name: depot_lifecycle
//	description: "Zone escalation and deactivation"
//	dataset: ../datasets/depot.yaml
//	window:
//	  start: "2024-03-01T00:00:00Z"
//	  end: "2024-03-01T01:00:00Z"
//	snapshots:
//	  - "2024-03-01T00:15:00Z"
//	checks:
//	  - type: zone_present
//	    at: "2024-03-01T00:15:00Z"
//	    zone: Z
//	  - type: cell_risk
//	    at: "2024-03-01T00:22:00Z"
//	    cell: c1
//	    risk: high
//
// Dataset paths are relative to the scenario file.
//
// # Check Types
//
//   - zone_present / zone_absent: the zone is (not) active in the frame
//   - entity_at: the entity's latest position is in the given cell
//   - entity_absent: the entity has no position yet
//   - cell_risk: the cell's derived risk level
//   - event_count: number of events at or before the frame time
//
// # Isolation
//
// Each run imports the dataset into a fresh in-memory store and reads the
// window back, so scenarios exercise the same path as the CLI.
package harness
