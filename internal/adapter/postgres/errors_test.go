package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/polascin/renaltales-backend/internal/domain"
)

func TestMapError_Nil(t *testing.T) {
	t.Parallel()

	if got := MapError(nil, "story", 1); got != nil {
		t.Errorf("MapError(nil) = %v, want nil", got)
	}
}

func TestMapError_NoRows(t *testing.T) {
	t.Parallel()

	got := MapError(pgx.ErrNoRows, "story", 42)

	if !errors.Is(got, domain.ErrNotFound) {
		t.Errorf("MapError(ErrNoRows) does not wrap domain.ErrNotFound: %v", got)
	}
	if want := "story 42: not found"; got.Error() != want {
		t.Errorf("MapError(ErrNoRows).Error() = %q, want %q", got.Error(), want)
	}
}

func TestMapError_WrappedNoRows(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("scan row: %w", pgx.ErrNoRows)
	if got := MapError(wrapped, "comment", 3); !errors.Is(got, domain.ErrNotFound) {
		t.Errorf("MapError(wrapped ErrNoRows) does not wrap domain.ErrNotFound: %v", got)
	}
}

func TestMapError_PgCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want error
	}{
		{"23505", domain.ErrAlreadyExists},
		{"23503", domain.ErrNotFound},
		{"23514", domain.ErrValidation},
		{"08006", domain.ErrConnection},
		{"42601", domain.ErrQuery},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			t.Parallel()
			got := MapError(&pgconn.PgError{Code: tt.code}, "user", 1)
			if !errors.Is(got, tt.want) {
				t.Errorf("MapError(%s) = %v, want wrap of %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestMapError_ContextPassesThrough(t *testing.T) {
	t.Parallel()

	for _, ctxErr := range []error{context.Canceled, context.DeadlineExceeded} {
		got := MapError(ctxErr, "story", 1)
		if !errors.Is(got, ctxErr) {
			t.Errorf("MapError(%v) lost the context error: %v", ctxErr, got)
		}
		if errors.Is(got, domain.ErrQuery) {
			t.Errorf("MapError(%v) must not be classified as a query failure", ctxErr)
		}
	}
}

func TestMapError_KeepsClassification(t *testing.T) {
	t.Parallel()

	verr := domain.NewValidationError("name", "required")
	got := MapError(verr, "story_category", 0)

	var target *domain.ValidationError
	if !errors.As(got, &target) || target != verr {
		t.Errorf("validation errors must pass through unchanged, got %v", got)
	}
}

func TestMapError_Unknown(t *testing.T) {
	t.Parallel()

	orig := errors.New("boom")
	got := MapError(orig, "story", 9)

	if !errors.Is(got, domain.ErrQuery) || !errors.Is(got, orig) {
		t.Errorf("MapError(unknown) = %v, want ErrQuery wrapping the original", got)
	}
}

func TestMapDeleteError(t *testing.T) {
	t.Parallel()

	got := MapDeleteError(&pgconn.PgError{Code: "23503"}, "users", 4)
	if !errors.Is(got, domain.ErrConflict) {
		t.Errorf("MapDeleteError(23503) = %v, want wrap of %v", got, domain.ErrConflict)
	}
	if errors.Is(got, domain.ErrNotFound) {
		t.Errorf("MapDeleteError(23503) must not report a missing row: %v", got)
	}

	if got := MapDeleteError(pgx.ErrNoRows, "users", 4); !errors.Is(got, domain.ErrNotFound) {
		t.Errorf("MapDeleteError(ErrNoRows) = %v, want wrap of %v", got, domain.ErrNotFound)
	}
	if got := MapDeleteError(nil, "users", 4); got != nil {
		t.Errorf("MapDeleteError(nil) = %v, want nil", got)
	}
}
