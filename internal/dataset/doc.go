// Package dataset reads replay datasets from files.
//
// A dataset file is YAML (.yaml, .yml) or CUE (.cue) and carries the replay
// window plus three logs: entity positions, zone audit entries and events.
// Record order in the file is arrival order. Timestamps are RFC 3339
// strings. Positions without a cell index get the S2 cell token at the
// configured grid level.
//
// YAML is decoded strictly (unknown fields are errors). CUE files are
// unified with the embedded #Dataset schema and must be concrete.
package dataset
