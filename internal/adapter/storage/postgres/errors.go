package postgres

import (
	"errors"
	"fmt"

	"account-ledger/internal/core/ports"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the store maps onto port sentinels.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeUniqueViolation      = "23505"
)

// classify tags driver errors with ports.ErrConflict or ports.ErrDuplicate
// so callers can tell retryable failures from fatal ones.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return fmt.Errorf("%w: %w", ports.ErrConflict, err)
	case codeUniqueViolation:
		return fmt.Errorf("%w: %w", ports.ErrDuplicate, err)
	}
	return err
}
