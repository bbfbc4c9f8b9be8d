package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected failure conditions. Handlers translate
// these into user-facing replies; they never carry a stack of causes.
var (
	// ErrNotFound reports an unknown user, guild or threshold.
	ErrNotFound = errors.New("not found")

	// ErrConfirmationRequired reports a destructive operation attempted
	// without a valid (or with an expired) confirmation handle.
	ErrConfirmationRequired = errors.New("confirmation required")

	// ErrOrphanedReference reports state pointing at a role or channel
	// that no longer exists on the platform. Diagnose repairs these
	// instead of propagating them.
	ErrOrphanedReference = errors.New("orphaned reference")
)

// ValidationError rejects bad settings or input before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validationf builds a ValidationError for a single field.
func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
