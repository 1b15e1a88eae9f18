package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/Zhima-Mochi/minishop-cart/internal/domain/storage"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestStore_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("present", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectValue)).
			WithArgs("@minishop:cart").
			WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow(`[]`))

		value, ok, err := NewStore(mock).Get(ctx, "@minishop:cart")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `[]`, value)
	})

	t.Run("absent", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectValue)).
			WithArgs("@minishop:cart").
			WillReturnError(pgx.ErrNoRows)

		value, ok, err := NewStore(mock).Get(ctx, "@minishop:cart")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, value)
	})

	t.Run("failure", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectValue)).
			WithArgs("@minishop:cart").
			WillReturnError(errors.New("connection reset"))

		_, ok, err := NewStore(mock).Get(ctx, "@minishop:cart")
		assert.False(t, ok)
		assert.ErrorIs(t, err, storage.ErrUnavailable)
	})
}

func TestStore_Set(t *testing.T) {
	ctx := context.Background()

	mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(upsertValue)).
		WithArgs("k", `[{"id":1,"amount":1}]`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(upsertValue)).
		WithArgs("k", `[]`).
		WillReturnError(errors.New("disk full"))

	store := NewStore(mock)
	require.NoError(t, store.Set(ctx, "k", `[{"id":1,"amount":1}]`))
	assert.ErrorIs(t, store.Set(ctx, "k", `[]`), storage.ErrUnavailable)
}

func TestStore_EnsureSchema(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(schema)).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, NewStore(mock).EnsureSchema(context.Background()))
}

func TestNewPoolRequiresDSN(t *testing.T) {
	_, err := NewPool(context.Background(), " ")
	require.Error(t, err)
}
