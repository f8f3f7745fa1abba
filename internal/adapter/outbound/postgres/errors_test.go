package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNotFoundError(t *testing.T) {
	assert.False(t, IsNotFoundError(nil))
	assert.True(t, IsNotFoundError(pgx.ErrNoRows))
	assert.True(t, IsNotFoundError(ErrNotFound))
	assert.True(t, IsNotFoundError(WrapError(pgx.ErrNoRows, "get escalation state")))
	assert.False(t, IsNotFoundError(errors.New("timeout")))
}

func TestIsConnectionError(t *testing.T) {
	assert.False(t, IsConnectionError(nil))
	assert.True(t, IsConnectionError(&pgconn.PgError{Code: "08006"}))
	assert.True(t, IsConnectionError(&pgconn.PgError{Code: "57P01"}))
	assert.False(t, IsConnectionError(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsConnectionError(ErrConnectionFailed))
}

func TestWrapError(t *testing.T) {
	require.NoError(t, WrapError(nil, "save resolution attempt"))

	wrapped := WrapError(&pgconn.PgError{Code: "23505"}, "save resolution attempt")
	require.Error(t, wrapped)
	assert.ErrorIs(t, wrapped, ErrAlreadyExists)
	assert.Contains(t, wrapped.Error(), "save resolution attempt")

	wrapped = WrapError(&pgconn.PgError{Code: "08006"}, "save cycle summary")
	assert.ErrorIs(t, wrapped, ErrConnectionFailed)

	plain := errors.New("unexpected")
	assert.ErrorIs(t, WrapError(plain, "get attempts"), plain)
}
