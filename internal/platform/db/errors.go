package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/showroom-admin/backoffice/internal/shared"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// ConstraintError describes a constraint violation reported by Postgres.
type ConstraintError struct {
	Constraint string
	Column     string
	Err        error
	cause      error
}

func (e *ConstraintError) Error() string {
	return e.Err.Error() + ": " + e.Constraint
}

// Unwrap exposes the shared sentinel and the driver error.
func (e *ConstraintError) Unwrap() []error {
	return []error{e.Err, e.cause}
}

// MapError converts driver errors into shared sentinels. Unique violations
// become shared.ErrDuplicate, foreign key violations shared.ErrReferenced and
// missing rows shared.ErrNotFound. Other errors pass through untouched.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return &ConstraintError{Constraint: pgErr.ConstraintName, Column: pgErr.ColumnName, Err: shared.ErrDuplicate, cause: err}
	case codeForeignKeyViolation:
		return &ConstraintError{Constraint: pgErr.ConstraintName, Column: pgErr.ColumnName, Err: shared.ErrReferenced, cause: err}
	}
	return err
}

// ConstraintName extracts the violated constraint name, if any.
func ConstraintName(err error) string {
	var cErr *ConstraintError
	if errors.As(err, &cErr) {
		return cErr.Constraint
	}
	return ""
}
