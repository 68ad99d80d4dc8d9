package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/polascin/renaltales-backend/internal/domain"
)

// MapError converts pgx/pgconn errors to domain errors.
// context.DeadlineExceeded and context.Canceled are NOT mapped: they pass through.
// Errors that are not recognised are reported as domain.ErrQuery.
func MapError(err error, entity string, id int64) error {
	if err == nil {
		return nil
	}

	// context errors pass through as-is
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %d: %w", entity, id, err)
	}

	// errors that were already classified keep their classification
	for _, sentinel := range []error{domain.ErrNotFound, domain.ErrValidation, domain.ErrConnection, domain.ErrQuery, domain.ErrAlreadyExists} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	// pgx.ErrNoRows → domain.ErrNotFound
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", entity, id, domain.ErrNotFound)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%s %d: %w: %w", entity, id, domain.ErrConnection, err)
	}

	// PgError codes
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s %d: %w", entity, id, domain.ErrAlreadyExists)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %d: %w", entity, id, domain.ErrNotFound)
		case "23514": // check_violation
			return fmt.Errorf("%s %d: %w", entity, id, domain.ErrValidation)
		case "08000", "08003", "08006", "08001", "08004": // connection_exception class
			return fmt.Errorf("%s %d: %w: %w", entity, id, domain.ErrConnection, err)
		}
	}

	// Everything else: a failed statement
	return fmt.Errorf("%s %d: %w: %w", entity, id, domain.ErrQuery, err)
}

// MapDeleteError is MapError for DELETE statements. A foreign key violation
// there means other rows still reference the target, so it maps to
// domain.ErrConflict instead of domain.ErrNotFound.
func MapDeleteError(err error, entity string, id int64) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return fmt.Errorf("%s %d: still referenced: %w", entity, id, domain.ErrConflict)
	}
	return MapError(err, entity, id)
}
