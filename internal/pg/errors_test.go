package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"tablekit/internal/apperr"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		code string
		kind apperr.Kind
	}{
		{"23505", apperr.KindConflict},
		{"42P07", apperr.KindConflict},
		{"42701", apperr.KindConflict},
		{"23502", apperr.KindValidation},
		{"23514", apperr.KindValidation},
		{"23503", apperr.KindValidation},
		{"22P02", apperr.KindTypeCoercion},
		{"22003", apperr.KindTypeCoercion},
		{"42P01", apperr.KindNotFound},
		{"42703", apperr.KindNotFound},
		{"42601", apperr.KindSchemaExecution},
	}
	for _, c := range cases {
		pgErr := &pgconn.PgError{Code: c.code, Message: "boom"}
		err := Classify(fmt.Errorf("exec: %w", pgErr), "orders")
		assert.Equal(t, c.kind, apperr.KindOf(err), c.code)
		assert.True(t, errors.Is(err, pgErr), c.code)
	}

	assert.Nil(t, Classify(nil, "x"))
	assert.True(t, apperr.Is(Classify(sql.ErrNoRows, "x"), apperr.KindNotFound))
	assert.True(t, apperr.Is(Classify(errors.New("conn reset"), "x"), apperr.KindSchemaExecution))

	already := apperr.Conflict("Table %q already exists", "orders")
	assert.Same(t, already, Classify(already, "x"))
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "tables_name_key"})
	assert.True(t, IsUniqueViolation(err, "tables_name_key"))
	assert.True(t, IsUniqueViolation(err, ""))
	assert.False(t, IsUniqueViolation(err, "other"))
	assert.False(t, IsUniqueViolation(errors.New("x"), ""))
}

type fakeExec struct {
	seen   []string
	failAt int
}

func (f *fakeExec) ExecContext(_ context.Context, q string, _ ...any) (sql.Result, error) {
	f.seen = append(f.seen, q)
	if len(f.seen) == f.failAt {
		return nil, &pgconn.PgError{Code: "42P07", Message: `relation "orders" already exists`}
	}
	return nil, nil
}

func TestApplyDDL(t *testing.T) {
	ex := &fakeExec{}
	require.NoError(t, ApplyDDL(context.Background(), ex, "orders", []string{"A", " ", "B"}))
	assert.Equal(t, []string{"A", "B"}, ex.seen)

	ex = &fakeExec{failAt: 2}
	err := ApplyDDL(context.Background(), ex, "orders", []string{"A", "B", "C"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, []string{"A", "B"}, ex.seen)
}
