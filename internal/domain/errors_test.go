package domain

import (
	"errors"
	"testing"
)

func TestValidationError_SingleField(t *testing.T) {
	t.Parallel()

	err := NewValidationError("name", "required")

	if got := err.Error(); got != "validation: name: required" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if got := err.Field(); got != "name" {
		t.Fatalf("unexpected Field(): %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("errors.Is(err, ErrValidation) = false")
	}
}

func TestValidationError_MultipleFields(t *testing.T) {
	t.Parallel()

	err := NewValidationErrors([]FieldError{
		{Field: "title", Message: "required"},
		{Field: "body", Message: "required"},
	})

	if got := err.Error(); got != "validation: 2 errors" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if got := err.Field(); got != "title" {
		t.Fatalf("Field() should name the first offending field, got %q", got)
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrNotFound, ErrAlreadyExists, ErrValidation,
		ErrConflict, ErrNotPersisted, ErrConnection, ErrQuery,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel errors %d and %d should not match", i, j)
			}
		}
	}
}

func TestDerivedSentinels(t *testing.T) {
	t.Parallel()

	if !errors.Is(ErrInvalidTransition, ErrConflict) {
		t.Error("ErrInvalidTransition should wrap ErrConflict")
	}
	if !errors.Is(ErrUnknownField, ErrValidation) {
		t.Error("ErrUnknownField should wrap ErrValidation")
	}
	if !errors.Is(ErrNoChanges, ErrConflict) || errors.Is(ErrNoChanges, ErrInvalidTransition) {
		t.Error("ErrNoChanges should wrap ErrConflict only")
	}
}
