package pg_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/entitlekit/pkg/pg"
)

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	assert.True(t, pg.IsNotFoundError(pgx.ErrNoRows))
	assert.True(t, pg.IsNotFoundError(fmt.Errorf("get override: %w", pgx.ErrNoRows)))
	assert.False(t, pg.IsNotFoundError(errors.New("other")))
	assert.False(t, pg.IsNotFoundError(nil))
}

func TestIsConstraintError(t *testing.T) {
	t.Parallel()

	assert.True(t, pg.IsConstraintError(&pgconn.PgError{Code: "23514"}))
	assert.True(t, pg.IsConstraintError(fmt.Errorf("save rule: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, pg.IsConstraintError(&pgconn.PgError{Code: "40001"}))
	assert.False(t, pg.IsConstraintError(errors.New("other")))
	assert.False(t, pg.IsConstraintError(nil))
}
