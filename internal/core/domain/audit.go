package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction names a state-changing request worth keeping a trail of.
type AuditAction string

const (
	AuditActionRegister AuditAction = "REGISTER"
	AuditActionLogin    AuditAction = "LOGIN"
	AuditActionDeposit  AuditAction = "DEPOSIT"
	AuditActionWithdraw AuditAction = "WITHDRAW"
	AuditActionTransfer AuditAction = "TRANSFER"
)

// Resource kinds an audit record can point at.
const (
	AuditResourceUser     = "user"
	AuditResourceSession  = "session"
	AuditResourceWallet   = "wallet"
	AuditResourceTransfer = "transfer"
)

// AuditLog is one row of the audit trail. ResourceID is the wallet id for
// deposits and withdrawals, the inter entry id for transfers and the user id
// for registrations. UserID is nil for unauthenticated requests.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	UserID       *uuid.UUID  `json:"user_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"`
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}

// NewAuditLog stamps a fresh audit record for action on a resource.
func NewAuditLog(action AuditAction, resourceType, resourceID string, userID *uuid.UUID) *AuditLog {
	return &AuditLog{
		ID:           uuid.New(),
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		CreatedAt:    time.Now().UTC(),
	}
}
