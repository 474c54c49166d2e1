package services

import "errors"

var (
	// ErrInvalidArgument marks input that failed validation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrForbidden marks a caller lacking the required role.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports which field was rejected and why. It matches
// ErrInvalidArgument under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidArgument
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
