// Package common defines the shared error taxonomy used across the document
// and relational layers. Callers should use errors.Is / errors.As to match
// these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrMultipleResults signals an invariant violation: a lookup that must
	// match at most one record matched several.
	ErrMultipleResults = errors.New("found more than one result")

	// ErrUnknownRuleset is returned when a hydration ruleset name is not
	// registered.
	ErrUnknownRuleset = errors.New("unknown hydration ruleset")
)

// ValidationError reports a schema validation failure for a single field.
// Validation is fail-fast, so the first offending field aborts the operation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s - %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for the given field path.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// TypeMismatchError reports a value that does not have the expected native
// storage type, e.g. a timestamp field that is not a storage timestamp.
type TypeMismatchError struct {
	Field    string
	Expected string
	Got      any
}

func (e *TypeMismatchError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("type mismatch: field %s: expected %s, got %T", e.Field, e.Expected, e.Got)
	}
	return fmt.Sprintf("type mismatch: expected %s, got %T", e.Expected, e.Got)
}

// WrapStorage tags a driver-level failure with the operation that produced
// it. Driver errors propagate unmodified in the chain; no retry or swallowing
// happens at this level.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("storage: %s: %w", op, err)
}
