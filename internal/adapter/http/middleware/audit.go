package middleware

import (
	"encoding/json"
	"net/http"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CtxAuditResourceID lets a handler name the resource its request touched.
const CtxAuditResourceID = "audit_resource_id"

// AuditLog records successful write operations once the handler has responded.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		if c.Request.Method != http.MethodPost {
			return
		}

		action, resourceType := mapPathToAction(c.FullPath(), c.Request.Method)
		if action == "" {
			return
		}

		var userID *uuid.UUID
		if id, ok := CallerID(c); ok {
			userID = &id
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"request_id": c.GetString(CtxRequestID),
		})

		entry := domain.NewAuditLog(action, resourceType, c.GetString(CtxAuditResourceID), userID)
		entry.IPAddress = c.ClientIP()
		entry.Details = string(details)
		auditSvc.Log(c.Request.Context(), entry)
	}
}

func mapPathToAction(path, method string) (domain.AuditAction, string) {
	if method != http.MethodPost {
		return "", ""
	}
	switch path {
	case "/api/v1/users":
		return domain.AuditActionRegister, domain.AuditResourceUser
	case "/api/v1/auth/login":
		return domain.AuditActionLogin, domain.AuditResourceSession
	case "/api/v1/wallets/deposit":
		return domain.AuditActionDeposit, domain.AuditResourceWallet
	case "/api/v1/wallets/withdraw":
		return domain.AuditActionWithdraw, domain.AuditResourceWallet
	case "/api/v1/transfers":
		return domain.AuditActionTransfer, domain.AuditResourceTransfer
	}
	return "", ""
}
