package handler

import (
	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// callerID returns the authenticated user or an AUTH_002 error.
func callerID(c *gin.Context) (uuid.UUID, error) {
	id, ok := middleware.CallerID(c)
	if !ok {
		return uuid.Nil, apperror.ErrInvalidToken()
	}
	return id, nil
}

func parseUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Validation(field + " must be a valid UUID")
	}
	return id, nil
}

// idempotencyKey reads the optional Idempotency-Key header.
func idempotencyKey(c *gin.Context) (string, error) {
	key := c.GetHeader(middleware.HeaderIdempotencyKey)
	if key == "" {
		return "", nil
	}
	if !dto.ValidIdempotencyKey(key) {
		return "", apperror.Validation("Idempotency-Key must be at most 128 characters of [A-Za-z0-9_.-]")
	}
	return key, nil
}

func toUserResponse(p *ports.UserProfile) dto.UserResponse {
	return dto.UserResponse{
		UserID:    p.User.ID.String(),
		Username:  p.User.Username,
		WalletID:  p.Wallet.ID.String(),
		Balance:   p.Wallet.Balance,
		Currency:  p.Wallet.Currency,
		CreatedAt: p.User.CreatedAt,
	}
}
