package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/efreitasn/stockmatch/internal/domain"
)

// PostgreSQL error codes the ledger translates.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeLockNotAvailable    = "55P03"
	codeQueryCanceled       = "57014"
	codeDeadlockDetected    = "40P01"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// lockErr classifies a failure while waiting on a lock. Cancellation,
// deadline expiry, lock_timeout and deadlock aborts become ErrLockTimeout
// so the caller can retry; anything else passes through.
func lockErr(ctx context.Context, what string, err error) error {
	if err == nil || !isLockFailure(ctx, err) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrLockTimeout, what, err)
}

func isLockFailure(ctx context.Context, err error) bool {
	if ctx.Err() != nil || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	switch pgCode(err) {
	case codeLockNotAvailable, codeQueryCanceled, codeDeadlockDetected:
		return true
	}
	return false
}

// checkErr maps a CHECK constraint failure inside a matching unit to an
// invariant violation.
func checkErr(err error) error {
	if pgCode(err) == codeCheckViolation {
		return fmt.Errorf("%w: %v", domain.ErrInvariantViolation, err)
	}
	return err
}
