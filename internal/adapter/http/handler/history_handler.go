package handler

import (
	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// HistoryHandler serves the ledger of a wallet.
type HistoryHandler struct {
	historySvc ports.HistoryService
	userSvc    ports.UserService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historySvc ports.HistoryService, userSvc ports.UserService) *HistoryHandler {
	return &HistoryHandler{historySvc: historySvc, userSvc: userSvc}
}

// ListTransactions handles GET /api/v1/users/:userId/wallets/:walletId/transactions.
func (h *HistoryHandler) ListTransactions(c *gin.Context) {
	caller, err := callerID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	userID, err := parseUUID(c.Param("userId"), "userId")
	if err != nil {
		response.Error(c, err)
		return
	}
	walletID, err := parseUUID(c.Param("walletId"), "walletId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if userID != caller {
		response.Error(c, apperror.ErrUnauthorizedAccess())
		return
	}

	var q dto.HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if _, err := h.userSvc.AuthorizeWallet(c.Request.Context(), caller, walletID); err != nil {
		response.Error(c, err)
		return
	}

	entries, err := h.historySvc.GetHistory(c.Request.Context(), ports.HistoryQuery{
		WalletID:  walletID,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
		Type:      q.TransactionType,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, entries)
}
