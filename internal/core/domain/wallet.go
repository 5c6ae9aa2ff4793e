package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits a monetary amount may carry.
const AmountScale = 2

// MaxAmount is the largest value a NUMERIC(19,2) amount or balance column holds.
var MaxAmount = decimal.RequireFromString("99999999999999999.99")

var (
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrAmountPrecision   = errors.New("amount has too many decimal places")
	ErrAmountTooLarge    = errors.New("amount exceeds the maximum")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Wallet holds a user's balance. Balance is never negative.
type Wallet struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewWallet creates an empty wallet for userID. An empty currency means the base currency.
func NewWallet(userID uuid.UUID, currency string) *Wallet {
	if currency == "" {
		currency = BaseCurrency
	}
	now := time.Now().UTC()
	return &Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		Balance:   decimal.Zero,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ValidateAmount checks that amount is strictly positive, no larger than
// MaxAmount and representable at AmountScale.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if amount.GreaterThan(MaxAmount) {
		return ErrAmountTooLarge
	}
	if !amount.Equal(amount.Round(AmountScale)) {
		return ErrAmountPrecision
	}
	return nil
}

// Credit adds amount to the balance. The result may not exceed MaxAmount.
func (w *Wallet) Credit(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if w.Balance.Add(amount).GreaterThan(MaxAmount) {
		return ErrAmountTooLarge
	}
	w.Balance = w.Balance.Add(amount)
	return nil
}

// Debit subtracts amount from the balance, refusing to go below zero.
func (w *Wallet) Debit(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if w.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	w.Balance = w.Balance.Sub(amount)
	return nil
}
