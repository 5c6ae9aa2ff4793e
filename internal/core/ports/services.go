package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID, username string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID   uuid.UUID
	Username string
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CurrencyConverter converts an amount between two currency codes.
// Failures are reported as ConversionUnavailable; there are no retries.
type CurrencyConverter interface {
	Convert(ctx context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error)
}

// EventPublisher writes keyed messages to the ledger event stream.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// --- Service Ports (Business Logic) ---

// WalletService is the balance-mutation engine.
type WalletService interface {
	Deposit(ctx context.Context, req MutationRequest) (*OperationResult, error)
	Withdraw(ctx context.Context, req MutationRequest) (*OperationResult, error)
	Transfer(ctx context.Context, req TransferRequest) (*OperationResult, error)
	GetBalance(ctx context.Context, walletID uuid.UUID, displayCurrency string) (*BalanceView, error)
}

// MutationRequest holds input for a deposit or withdrawal.
// An empty Currency means the wallet's own currency.
type MutationRequest struct {
	WalletID       uuid.UUID
	Amount         decimal.Decimal
	Currency       string
	IdempotencyKey string
}

// TransferRequest holds input for a wallet-to-wallet transfer.
// Amount is expressed in the sender's currency.
type TransferRequest struct {
	SenderWalletID    uuid.UUID
	RecipientWalletID uuid.UUID
	Amount            decimal.Decimal
	IdempotencyKey    string
}

// OperationResult is the outcome of a committed balance mutation.
// Balance is the acting wallet's new balance (the sender's for transfers).
type OperationResult struct {
	WalletID uuid.UUID          `json:"wallet_id"`
	Balance  decimal.Decimal    `json:"balance"`
	Currency string             `json:"currency"`
	Entry    domain.LedgerEntry `json:"entry"`
}

// BalanceView is a wallet balance, optionally converted for display.
type BalanceView struct {
	WalletID        uuid.UUID        `json:"wallet_id"`
	Balance         decimal.Decimal  `json:"balance"`
	Currency        string           `json:"currency"`
	DisplayBalance  *decimal.Decimal `json:"display_balance,omitempty"`
	DisplayCurrency string           `json:"display_currency,omitempty"`
}

// HistoryService reads the ledger of a wallet.
type HistoryService interface {
	GetHistory(ctx context.Context, q HistoryQuery) ([]domain.LedgerEntry, error)
}

// HistoryQuery carries raw, unvalidated query options. Empty means default.
type HistoryQuery struct {
	WalletID  uuid.UUID
	SortBy    string
	SortOrder string
	Type      string
}

// UserService covers registration, login and the user-to-wallet directory.
type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserProfile, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserProfile, error)
	ResolveWallet(ctx context.Context, callerID uuid.UUID, ref UserRef) (*domain.Wallet, error)
	AuthorizeWallet(ctx context.Context, callerID, walletID uuid.UUID) (*domain.Wallet, error)
}

// RegisterRequest holds input for user registration.
type RegisterRequest struct {
	Username string
	Password string
	Currency string
}

// UserProfile is a user together with their wallet.
type UserProfile struct {
	User   *domain.User   `json:"user"`
	Wallet *domain.Wallet `json:"wallet"`
}

// UserRef identifies a user by id or username. Both empty means the caller.
type UserRef struct {
	UserID   *uuid.UUID
	Username string
}

// AuditService records audited actions.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// LedgerNotifier hands committed entries to downstream consumers.
type LedgerNotifier interface {
	Notify(ctx context.Context, entry domain.LedgerEntry) error
}
