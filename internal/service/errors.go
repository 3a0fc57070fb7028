package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a request the tutor refuses before touching the
	// collection. Every ValidationError matches it.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrExternalService marks failures of the answer generator or a fetched page.
	ErrExternalService = errors.New("external service error")
)

// ValidationError names the request field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func invalidField(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// WrapError prefixes err with msg. A nil err stays nil.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// externalError wraps a generator failure so callers can match ErrExternalService.
func externalError(err error, msg string) error {
	return WrapError(errors.Join(ErrExternalService, err), msg)
}
