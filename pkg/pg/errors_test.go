package pg_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/opsdeck/opsdeck/pkg/pg"
)

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, pg.IsNotFound(pgx.ErrNoRows))
	assert.True(t, pg.IsNotFound(fmt.Errorf("query entity: %w", pgx.ErrNoRows)))
	assert.False(t, pg.IsNotFound(errors.New("other")))
	assert.False(t, pg.IsNotFound(nil))
}

func TestIsDuplicateKey(t *testing.T) {
	t.Parallel()

	dup := &pgconn.PgError{Code: "23505"}
	assert.True(t, pg.IsDuplicateKey(dup))
	assert.True(t, pg.IsDuplicateKey(fmt.Errorf("insert: %w", dup)))
	assert.False(t, pg.IsDuplicateKey(&pgconn.PgError{Code: "23503"}))
	assert.False(t, pg.IsDuplicateKey(errors.New("other")))
}

func TestIsForeignKeyViolation(t *testing.T) {
	t.Parallel()

	fk := &pgconn.PgError{Code: "23503"}
	assert.True(t, pg.IsForeignKeyViolation(fk))
	assert.False(t, pg.IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, pg.IsForeignKeyViolation(nil))
}
