package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")

	// ErrInvalidTransition is returned when a state machine refuses a transition.
	ErrInvalidTransition = fmt.Errorf("invalid state transition: %w", ErrConflict)

	// ErrNoChanges is returned when an operation needs pending edits and
	// the entity has none.
	ErrNoChanges = fmt.Errorf("no changes: %w", ErrConflict)

	// ErrNotPersisted is returned by operations that need an identity
	// (delete, relation resolution on children) on an unsaved entity.
	ErrNotPersisted = errors.New("entity is not persisted")

	// ErrUnknownField is returned when a query names a field outside the
	// entity's whitelist. It is a validation error.
	ErrUnknownField = fmt.Errorf("unknown field: %w", ErrValidation)

	// ErrConnection marks fatal connection failures. They are never retried.
	ErrConnection = errors.New("database connection failure")

	// ErrQuery marks statements that reached the database and failed.
	ErrQuery = errors.New("query failure")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Field returns the name of the first offending field.
func (e *ValidationError) Field() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].Field
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

func invalidTransition(entity string, from, action string) error {
	return fmt.Errorf("%s: cannot %s from %q: %w", entity, action, from, ErrInvalidTransition)
}
