package policy

import (
	"errors"
	"fmt"
	"strings"
)

// ActivationErrorCode categorizes activation failures.
type ActivationErrorCode string

const (
	// ErrCodeInvalidTimeContext indicates ValidateTimeContext failed.
	ErrCodeInvalidTimeContext ActivationErrorCode = "INVALID_TIME_CONTEXT"
)

// ActivationError is returned when a mode refuses to activate.
type ActivationError struct {
	Code       ActivationErrorCode
	Mode       Mode
	Violations []string
}

// Error implements the error interface.
func (e *ActivationError) Error() string {
	return fmt.Sprintf("%s: cannot activate %s mode: %s", e.Code, e.Mode, strings.Join(e.Violations, "; "))
}

// IsActivationError returns true if err is (or wraps) an *ActivationError.
func IsActivationError(err error) bool {
	var ae *ActivationError
	return errors.As(err, &ae)
}

// Violations extracts the violation list from an activation error.
// Returns nil for any other error.
func Violations(err error) []string {
	var ae *ActivationError
	if errors.As(err, &ae) {
		return ae.Violations
	}
	return nil
}
