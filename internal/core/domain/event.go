package domain

import (
	"time"

	"github.com/google/uuid"
)

// LedgerEvent is published after a balance-changing operation commits.
type LedgerEvent struct {
	EventID    uuid.UUID   `json:"event_id"`
	Entry      LedgerEntry `json:"entry"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// NewLedgerEvent wraps a committed entry.
func NewLedgerEvent(entry LedgerEntry) *LedgerEvent {
	return &LedgerEvent{
		EventID:    uuid.New(),
		Entry:      entry,
		OccurredAt: time.Now().UTC(),
	}
}

// PartitionKey groups events of one wallet onto one partition.
// Transfers are keyed by the sender.
func (e *LedgerEvent) PartitionKey() string {
	switch {
	case e.Entry.WalletID != nil:
		return e.Entry.WalletID.String()
	case e.Entry.SenderWalletID != nil:
		return e.Entry.SenderWalletID.String()
	}
	return e.EventID.String()
}
