package policy

import (
	"fmt"
	"time"
)

// TimeContext bounds a replay session. A zero time.Time means "not provided".
type TimeContext struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Current time.Time `json:"current"`
}

// ValidationResult is the outcome of ValidateTimeContext.
type ValidationResult struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
}

// ValidateTimeContext checks that start, end and current are all present,
// that start is strictly before end, and that current lies within
// [start, end]. It never panics and reports all violations it finds.
func ValidateTimeContext(tc TimeContext) ValidationResult {
	violations := []string{}

	if tc.Start.IsZero() {
		violations = append(violations, "start time is required")
	}
	if tc.End.IsZero() {
		violations = append(violations, "end time is required")
	}
	if tc.Current.IsZero() {
		violations = append(violations, "current time is required")
	}

	if !tc.Start.IsZero() && !tc.End.IsZero() && !tc.Start.Before(tc.End) {
		violations = append(violations, fmt.Sprintf(
			"start time %s must be before end time %s",
			tc.Start.UTC().Format(time.RFC3339Nano), tc.End.UTC().Format(time.RFC3339Nano)))
	}

	if !tc.Current.IsZero() {
		if !tc.Start.IsZero() && tc.Current.Before(tc.Start) {
			violations = append(violations, fmt.Sprintf(
				"current time %s is before start time %s",
				tc.Current.UTC().Format(time.RFC3339Nano), tc.Start.UTC().Format(time.RFC3339Nano)))
		}
		if !tc.End.IsZero() && tc.Current.After(tc.End) {
			violations = append(violations, fmt.Sprintf(
				"current time %s is after end time %s",
				tc.Current.UTC().Format(time.RFC3339Nano), tc.End.UTC().Format(time.RFC3339Nano)))
		}
	}

	return ValidationResult{
		Valid:      len(violations) == 0,
		Violations: violations,
	}
}
