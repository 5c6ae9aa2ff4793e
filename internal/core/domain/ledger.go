package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType represents the kind of balance-affecting event.
type EntryType string

const (
	EntryTypeDeposit  EntryType = "DEPOSIT"
	EntryTypeWithdraw EntryType = "WITHDRAW"
	EntryTypeTransfer EntryType = "TRANSFER"
)

// ParseEntryType accepts a type name in any case.
func ParseEntryType(s string) (EntryType, error) {
	switch t := EntryType(strings.ToUpper(strings.TrimSpace(s))); t {
	case EntryTypeDeposit, EntryTypeWithdraw, EntryTypeTransfer:
		return t, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// IsIntra reports whether the type affects a single wallet.
func (t EntryType) IsIntra() bool {
	return t == EntryTypeDeposit || t == EntryTypeWithdraw
}

// IntraEntry is an immutable deposit or withdrawal record.
type IntraEntry struct {
	ID        uuid.UUID       `json:"id"`
	WalletID  uuid.UUID       `json:"wallet_id"`
	Type      EntryType       `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewIntraEntry builds a deposit or withdrawal record.
func NewIntraEntry(walletID uuid.UUID, t EntryType, amount decimal.Decimal) (*IntraEntry, error) {
	if !t.IsIntra() {
		return nil, fmt.Errorf("%s is not an intra-wallet type", t)
	}
	if !amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	return &IntraEntry{
		ID:        uuid.New(),
		WalletID:  walletID,
		Type:      t,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// InterEntry is an immutable transfer record. A transfer writes exactly one of these,
// referencing both wallets. CreditedAmount is expressed in the recipient's currency.
type InterEntry struct {
	ID                uuid.UUID       `json:"id"`
	SenderWalletID    uuid.UUID       `json:"sender_wallet_id"`
	RecipientWalletID uuid.UUID       `json:"recipient_wallet_id"`
	Type              EntryType       `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	CreditedAmount    decimal.Decimal `json:"credited_amount"`
	CreatedAt         time.Time       `json:"created_at"`
}

// NewInterEntry builds a transfer record.
func NewInterEntry(sender, recipient uuid.UUID, amount, credited decimal.Decimal) (*InterEntry, error) {
	if sender == recipient {
		return nil, fmt.Errorf("sender and recipient must differ")
	}
	if !amount.IsPositive() || !credited.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	return &InterEntry{
		ID:                uuid.New(),
		SenderWalletID:    sender,
		RecipientWalletID: recipient,
		Type:              EntryTypeTransfer,
		Amount:            amount,
		CreditedAmount:    credited,
		CreatedAt:         time.Now().UTC(),
	}, nil
}

// LedgerEntry is the unified read view over intra and inter entries.
// WalletID is set for intra entries; Sender/Recipient for transfers.
type LedgerEntry struct {
	ID                uuid.UUID        `json:"id"`
	Type              EntryType        `json:"type"`
	Amount            decimal.Decimal  `json:"amount"`
	CreditedAmount    *decimal.Decimal `json:"credited_amount,omitempty"`
	WalletID          *uuid.UUID       `json:"wallet_id,omitempty"`
	SenderWalletID    *uuid.UUID       `json:"sender_wallet_id,omitempty"`
	RecipientWalletID *uuid.UUID       `json:"recipient_wallet_id,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

// View converts the record into the unified view.
func (e *IntraEntry) View() LedgerEntry {
	walletID := e.WalletID
	return LedgerEntry{
		ID:        e.ID,
		Type:      e.Type,
		Amount:    e.Amount,
		WalletID:  &walletID,
		CreatedAt: e.CreatedAt,
	}
}

// View converts the record into the unified view.
func (e *InterEntry) View() LedgerEntry {
	sender, recipient, credited := e.SenderWalletID, e.RecipientWalletID, e.CreditedAmount
	return LedgerEntry{
		ID:                e.ID,
		Type:              e.Type,
		Amount:            e.Amount,
		CreditedAmount:    &credited,
		SenderWalletID:    &sender,
		RecipientWalletID: &recipient,
		CreatedAt:         e.CreatedAt,
	}
}

// IsTransfer reports whether the entry references two wallets.
func (e LedgerEntry) IsTransfer() bool {
	return e.Type == EntryTypeTransfer
}
