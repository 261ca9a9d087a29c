// Package guardrail provides pre-invocation input validation for external
// capability calls.
//
// A capability invocation is wrapped by an ordered list of checks; the first
// failing check short-circuits the call and returns a structured rejection.
// Rejections are terminal for the transaction being scored; they must never
// be silently skipped or downgraded to a default value.
package guardrail

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRejected is the sentinel all guardrail rejections unwrap to.
var ErrRejected = errors.New("guardrail rejected input")

// RejectionError identifies which check rejected the input and why.
type RejectionError struct {
	Check   string
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("guardrail %s: %s", e.Check, e.Message)
}

func (e *RejectionError) Unwrap() error { return ErrRejected }

// Check validates one aspect of a capability input. A nil return means pass.
type Check func() *RejectionError

// Run evaluates checks in order and returns the first rejection, or nil if
// all checks pass.
func Run(checks ...Check) error {
	for _, check := range checks {
		if rej := check(); rej != nil {
			return rej
		}
	}
	return nil
}

// Required rejects empty values.
func Required(name, value string) Check {
	return func() *RejectionError {
		if strings.TrimSpace(value) == "" {
			return &RejectionError{Check: name, Message: "is required"}
		}
		return nil
	}
}

// CorridorAllowed rejects corridors outside the allow-list. The comparison
// is exact: corridors are canonical uppercase pairs like "US-IN".
func CorridorAllowed(corridor string, allowed []string) Check {
	return func() *RejectionError {
		for _, a := range allowed {
			if corridor == a {
				return nil
			}
		}
		return &RejectionError{
			Check:   "corridor",
			Message: fmt.Sprintf("corridor %q is not in the allowed set %v", corridor, allowed),
		}
	}
}
