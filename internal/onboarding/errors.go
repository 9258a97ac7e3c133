package onboarding

import (
	"errors"
	"fmt"
)

// Precondition violations. Callers that gate on Step() and Busy() never see these.
var (
	ErrInvalidTransition = errors.New("transition not allowed in current step")
	ErrFlowComplete      = errors.New("onboarding already complete")
	ErrNotComplete       = errors.New("onboarding not complete")
	ErrBusy              = errors.New("operation in progress")
	ErrWrongInput        = errors.New("input does not match current step")
	ErrNoPendingOccasion = errors.New("no custom occasion awaiting a date")
	ErrUnknownOccasion   = errors.New("unknown occasion")
)

// Outcomes of the account linking call. The flow stays on the linking step.
var (
	ErrLinkDeclined = errors.New("account linking declined")
	ErrLinkFailed   = errors.New("account linking failed")
)

// ValidationError is a user-correctable rejection. Reason is meant to be shown to the user.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
