package common

import (
	"errors"
	"fmt"
)

var (
	// location
	ErrPermissionDenied = errors.New("location permission denied")
	ErrServicesDisabled = errors.New("location services disabled")
	ErrLookupFailed     = errors.New("location lookup failed")

	ErrNetworkFailure = errors.New("network failure")
	ErrAuthExpired    = errors.New("authentication expired")
	ErrBadCredentials = errors.New("invalid email or password")
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
