// Package replay reconstructs point-in-time frames from immutable logs.
//
// A loaded DataSource holds three append-only logs: entity position samples,
// zone audit entries and discrete geo events. FrameAt(T) replays them up to
// and including T and returns a Frame:
//
//   - Entities: the latest sample per entity with timestamp <= T. Entities
//     with no such sample are absent; nothing is interpolated.
//   - Zones: audit entries with timestamp <= T folded in timestamp order
//     (arrival order breaks ties), keeping only zones that end up active.
//   - Cells: per grid cell, the union of ids, names and tags of the active
//     zones covering it, with a risk level derived from the merged tags.
//   - Events: every event with timestamp <= T.
//
// A frame is a pure function of (DataSource, T). Frames are cached by the
// exact query timestamp in a bounded insertion-order (FIFO) cache: when full,
// the entry inserted longest ago is dropped, regardless of how recently it
// was read. Frames are shared with callers and must not be mutated.
//
// The engine never writes to its logs. A missing dataset is not an error;
// queries return nil and log a diagnostic.
package replay
