package policy

import "time"

// ModeContext is the result of a successful activation. It is passed
// explicitly to the components running inside the mode.
type ModeContext struct {
	Policy Policy
	Time   TimeContext
}

// Activate validates tc against the replay policy and returns the mode
// context on success. On failure the returned error is an *ActivationError
// carrying every violation message.
func Activate(tc TimeContext) (ModeContext, error) {
	p := Replay()
	if p.RequiresTimeContext {
		if res := ValidateTimeContext(tc); !res.Valid {
			return ModeContext{}, &ActivationError{
				Code:       ErrCodeInvalidTimeContext,
				Mode:       p.Mode,
				Violations: res.Violations,
			}
		}
	}
	return ModeContext{Policy: p, Time: tc}, nil
}

// Mode returns the active mode.
func (m ModeContext) Mode() Mode {
	return m.Policy.Mode
}

// Bounds returns the activated time range.
func (m ModeContext) Bounds() (start, end time.Time) {
	return m.Time.Start, m.Time.End
}

// Permits reports whether the interaction state is legal in this context.
func (m ModeContext) Permits(s InteractionState) bool {
	return m.Policy.AllowsState(s)
}
