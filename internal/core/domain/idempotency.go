package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrIdempotencyConflict is returned when another request committed the same key first.
var ErrIdempotencyConflict = errors.New("idempotency key already recorded")

// IdempotencyLog stores the result of a keyed write so a replay returns it unchanged.
type IdempotencyLog struct {
	Key          string    `json:"key"` // Format: "wallet_id:operation:client_key"
	EntryID      uuid.UUID `json:"entry_id"`
	ResponseJSON []byte    `json:"response_json"`
	CreatedAt    time.Time `json:"created_at"`
}

// BuildIdempotencyKey scopes a client-supplied key to a wallet and operation.
func BuildIdempotencyKey(walletID uuid.UUID, operation EntryType, clientKey string) string {
	return walletID.String() + ":" + string(operation) + ":" + clientKey
}
