package handler

import (
	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// TransferHandler handles wallet-to-wallet transfers.
type TransferHandler struct {
	walletSvc ports.WalletService
	userSvc   ports.UserService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(walletSvc ports.WalletService, userSvc ports.UserService) *TransferHandler {
	return &TransferHandler{walletSvc: walletSvc, userSvc: userSvc}
}

// Transfer handles POST /api/v1/transfers. The caller must own the sender wallet.
func (h *TransferHandler) Transfer(c *gin.Context) {
	caller, err := callerID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	senderID, err := parseUUID(req.SenderWalletID, "sender_wallet_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	recipientID, err := parseUUID(req.RecipientWalletID, "recipient_wallet_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	key, err := idempotencyKey(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if _, err := h.userSvc.AuthorizeWallet(c.Request.Context(), caller, senderID); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.walletSvc.Transfer(c.Request.Context(), ports.TransferRequest{
		SenderWalletID:    senderID,
		RecipientWalletID: recipientID,
		Amount:            req.Amount,
		IdempotencyKey:    scopedKey(caller, key),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxAuditResourceID, result.Entry.ID.String())
	response.OK(c, result)
}
