package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// TxManager scopes transactions to a unit of work using the context pattern.
// A RunInTx call made inside another RunInTx callback joins the enclosing
// transaction instead of opening a second one, so an entity save that runs
// in its own transaction composes into a larger multi-entity operation.
type TxManager struct {
	db  DB
	log *slog.Logger
}

// NewTxManager creates a new TxManager. A nil logger discards output.
func NewTxManager(db DB, logger *slog.Logger) *TxManager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TxManager{db: db, log: logger}
}

// RunInTx executes fn within a database transaction.
// Isolation level: Read Committed (PostgreSQL default).
// On success: commits.
// On error from fn: rolls back and returns the error.
// On panic from fn: rolls back and re-panics.
// When ctx already carries a transaction, fn runs inside it and the outer
// call decides commit or rollback.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if InTx(ctx) {
		return fn(ctx)
	}

	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", MapError(err, "transaction", 0))
	}

	unit := uuid.NewString()
	m.log.DebugContext(ctx, "transaction started", slog.String("unit", unit))

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			m.log.WarnContext(ctx, "transaction rolled back after panic", slog.String("unit", unit))
			panic(r)
		}
	}()

	txCtx := withTx(ctx, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, err)
		}
		m.log.DebugContext(ctx, "transaction rolled back",
			slog.String("unit", unit),
			slog.String("error", err.Error()))
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", MapError(err, "transaction", 0))
	}

	m.log.DebugContext(ctx, "transaction committed", slog.String("unit", unit))
	return nil
}
