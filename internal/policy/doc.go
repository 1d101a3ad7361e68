// Package policy declares the replay mode contract.
//
// Replay is a read-only, time-bounded mode. While it is active only the
// inspect interaction state is legal, no live data is received, and only
// non-mutating visual layers may be mounted. Activation requires a valid
// time context; ValidateTimeContext reports every violation instead of
// failing on the first one.
//
// The policy is a value, not a process-wide setting. Activate returns a
// ModeContext that callers pass to the components that need it, so several
// replay sessions can coexist.
package policy
