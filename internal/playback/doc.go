// Package playback drives a time cursor through a replay range.
//
// The Controller owns a cursor in [start, end], a stopped/playing/paused
// state machine and a speed multiplier. While playing, a scheduled tick
// advances the cursor by the real time elapsed since the previous tick
// (measured on the clock's monotonic reading) multiplied by the speed.
// Reaching end pauses playback; a later Play restarts from start.
//
// Every state change produces a ChangeEvent delivered to subscribers in
// subscription order. Delivery is serialized: events are queued and drained
// by a single caller at a time, so a listener that calls back into the
// controller never re-enters delivery. Its mutation is applied immediately
// and its event is delivered after the current one completes.
//
// Pause, Stop and Destroy cancel the scheduled tick. A tick that was already
// in flight when the cancellation happened is discarded.
package playback
