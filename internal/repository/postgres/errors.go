package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"promptvault/internal/domain"
)

// PostgreSQL error codes the stores translate
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeInvalidTextRepr      = "22P02"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// IsPgDuplicateError checks if error is a unique constraint violation
func IsPgDuplicateError(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

// IsPgNoRowsError checks if error is a "no rows" error
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsPgForeignKeyError checks if error is a foreign key violation
func IsPgForeignKeyError(err error) bool {
	return hasCode(err, codeForeignKeyViolation)
}

// IsPgInvalidTextError checks if a value could not be parsed, e.g. a malformed UUID
func IsPgInvalidTextError(err error) bool {
	return hasCode(err, codeInvalidTextRepr)
}

// IsPgConflictError checks if the transaction lost a race with a concurrent writer
func IsPgConflictError(err error) bool {
	return hasCode(err, codeUniqueViolation) ||
		hasCode(err, codeSerializationFailure) ||
		hasCode(err, codeDeadlockDetected) ||
		hasCode(err, codeLockNotAvailable)
}

// IsPgUnavailableError checks if the database could not be reached
func IsPgUnavailableError(err error) bool {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	return pgconn.Timeout(err) && !errors.Is(err, context.DeadlineExceeded)
}

// WrapError translates driver failures into domain sentinels.
// Errors it does not recognize are wrapped with op for context.
func WrapError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case IsPgConflictError(err):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrConcurrencyConflict, err)
	case IsPgUnavailableError(err):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrStorageUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
