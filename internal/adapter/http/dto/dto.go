package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// --- Users ---

// RegisterRequest is the payload for POST /api/v1/users.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,max=50,safe_id"`
	Password string `json:"password" binding:"required,max=128" sanitize:"-"`
	Currency string `json:"currency" binding:"omitempty,currency_code"`
}

// LoginRequest is the payload for POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,max=128" sanitize:"-"`
}

// LoginResponse carries an issued access token.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"`
}

// UserResponse is a user together with its wallet.
type UserResponse struct {
	UserID    string          `json:"user_id"`
	Username  string          `json:"username"`
	WalletID  string          `json:"wallet_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
}

// --- Wallets ---

// MutationRequest is the payload for deposit and withdraw. The target user is
// given by user_id or username; both empty means the caller. Currency is the
// unit of Amount and defaults to the wallet's own.
type MutationRequest struct {
	UserID   *string         `json:"user_id" binding:"omitempty,uuid"`
	Username string          `json:"username" binding:"omitempty,max=50"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" binding:"omitempty,currency_code"`
}

// TransferRequest is the payload for POST /api/v1/transfers.
// Amount is in the sender's currency.
type TransferRequest struct {
	SenderWalletID    string          `json:"sender_wallet_id" binding:"required,uuid"`
	RecipientWalletID string          `json:"recipient_wallet_id" binding:"required,uuid"`
	Amount            decimal.Decimal `json:"amount"`
}

// HistoryQuery binds the optional query string of the history endpoint.
type HistoryQuery struct {
	SortBy          string `form:"sortBy" binding:"omitempty,max=20"`
	SortOrder       string `form:"sortOrder" binding:"omitempty,max=20"`
	TransactionType string `form:"transactionType" binding:"omitempty,max=20"`
}

// BalanceQuery binds GET /api/v1/wallets/balance.
type BalanceQuery struct {
	Currency string `form:"currency" binding:"omitempty,currency_code"`
}
