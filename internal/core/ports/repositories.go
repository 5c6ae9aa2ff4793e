package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// UserRepository defines persistence operations for users.
// Lookups return (nil, nil) when no row matches.
type UserRepository interface {
	Create(ctx context.Context, tx pgx.Tx, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type WalletRepository interface {
	Create(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error
}

// LedgerRepository is the append-only entry log. Writes happen only inside
// the transaction that mutates the balance they record.
type LedgerRepository interface {
	CreateIntra(ctx context.Context, tx pgx.Tx, entry *domain.IntraEntry) error
	CreateInter(ctx context.Context, tx pgx.Tx, entry *domain.InterEntry) error
	ListByWallet(ctx context.Context, params LedgerListParams) ([]domain.LedgerEntry, error)
}

// LedgerSortField selects the history ordering column.
type LedgerSortField string

const (
	SortByTimestamp LedgerSortField = "timestamp"
	SortByAmount    LedgerSortField = "amount"
)

// LedgerListParams holds the filter and ordering for a wallet history read.
type LedgerListParams struct {
	WalletID   uuid.UUID
	Type       *domain.EntryType
	SortBy     LedgerSortField
	Descending bool
}

// IdempotencyRepository defines persistence for idempotency logs (DB backup).
type IdempotencyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error
	Get(ctx context.Context, key string) (*domain.IdempotencyLog, error)
}

// AuditRepository persists audit records.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
