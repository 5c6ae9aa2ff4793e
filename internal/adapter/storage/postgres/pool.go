package postgres

import (
	"context"
	"errors"

	"wallet-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Pool is the subset of *pgxpool.Pool the repositories use.
// pgxmock.PgxPoolIface satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
	numericOverflow = "22003"
)

// pgErrorCode returns the SQLSTATE and constraint name of a server error.
func pgErrorCode(err error) (string, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

// translateConstraint maps constraint and numeric range violations onto domain errors.
func translateConstraint(err error) error {
	code, constraint := pgErrorCode(err)
	switch {
	case code == uniqueViolation && constraint == "users_username_key":
		return domain.ErrUsernameTaken
	case code == uniqueViolation && constraint == "idempotency_logs_pkey":
		return domain.ErrIdempotencyConflict
	case code == checkViolation && constraint == "wallets_balance_non_negative":
		return domain.ErrInsufficientFunds
	case code == numericOverflow:
		return domain.ErrAmountTooLarge
	}
	return err
}
