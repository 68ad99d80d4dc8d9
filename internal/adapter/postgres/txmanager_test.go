package postgres

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestRunInTx_Commit(t *testing.T) {
	t.Parallel()

	mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE stories`).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	tm := NewTxManager(mock, nil)
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		assert.True(t, InTx(ctx))
		_, err := QuerierFromCtx(ctx, mock).Exec(ctx, "UPDATE stories SET status = 'draft'")
		return err
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	t.Parallel()

	mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	sentinel := errors.New("business logic error")
	tm := NewTxManager(mock, nil)
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return sentinel
	})

	require.ErrorIs(t, err, sentinel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_RollbackOnPanic(t *testing.T) {
	t.Parallel()

	mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	tm := NewTxManager(mock, nil)

	assert.PanicsWithValue(t, "test panic", func() {
		_ = tm.RunInTx(context.Background(), func(ctx context.Context) error {
			panic("test panic")
		})
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_NestedJoinsOuter(t *testing.T) {
	t.Parallel()

	mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	tm := NewTxManager(mock, nil)
	innerRan := false
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return tm.RunInTx(ctx, func(ctx context.Context) error {
			innerRan = true
			return nil
		})
	})

	require.NoError(t, err)
	assert.True(t, innerRan)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_BeginFails(t *testing.T) {
	t.Parallel()

	mock := newMockDB(t)
	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	tm := NewTxManager(mock, nil)
	called := false
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, called)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuerierFromCtx_NoTx(t *testing.T) {
	t.Parallel()

	mock := newMockDB(t)
	assert.False(t, InTx(context.Background()))
	assert.Equal(t, Querier(mock), QuerierFromCtx(context.Background(), mock))
}
