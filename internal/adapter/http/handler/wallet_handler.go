package handler

import (
	"context"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles balance, deposit and withdraw endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
	userSvc   ports.UserService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService, userSvc ports.UserService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc, userSvc: userSvc}
}

// GetBalance handles GET /api/v1/wallets/balance?currency=.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	caller, err := callerID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var q dto.BalanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	wallet, err := h.userSvc.ResolveWallet(c.Request.Context(), caller, ports.UserRef{})
	if err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.walletSvc.GetBalance(c.Request.Context(), wallet.ID, q.Currency)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, view)
}

// Deposit handles POST /api/v1/wallets/deposit.
func (h *WalletHandler) Deposit(c *gin.Context) {
	h.mutate(c, h.walletSvc.Deposit)
}

// Withdraw handles POST /api/v1/wallets/withdraw.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	h.mutate(c, h.walletSvc.Withdraw)
}

func (h *WalletHandler) mutate(c *gin.Context, op func(context.Context, ports.MutationRequest) (*ports.OperationResult, error)) {
	caller, err := callerID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.MutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	key, err := idempotencyKey(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	ref := ports.UserRef{Username: req.Username}
	if req.UserID != nil && *req.UserID != "" {
		id, err := parseUUID(*req.UserID, "user_id")
		if err != nil {
			response.Error(c, err)
			return
		}
		ref.UserID = &id
	}

	wallet, err := h.userSvc.ResolveWallet(c.Request.Context(), caller, ref)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := op(c.Request.Context(), ports.MutationRequest{
		WalletID:       wallet.ID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		IdempotencyKey: scopedKey(caller, key),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxAuditResourceID, result.WalletID.String())
	response.OK(c, result)
}

// scopedKey namespaces a client key by caller so two users cannot collide.
func scopedKey(caller uuid.UUID, key string) string {
	if key == "" {
		return ""
	}
	return caller.String() + ":" + key
}
