package service

import (
	"context"
	"fmt"
	"strings"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
)

// HistoryServiceImpl implements ports.HistoryService.
type HistoryServiceImpl struct {
	walletRepo ports.WalletRepository
	ledgerRepo ports.LedgerRepository
}

// NewHistoryService creates a new HistoryServiceImpl.
func NewHistoryService(walletRepo ports.WalletRepository, ledgerRepo ports.LedgerRepository) *HistoryServiceImpl {
	return &HistoryServiceImpl{
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
	}
}

// GetHistory returns every entry touching the wallet: its deposits and
// withdrawals plus transfers where it is sender or recipient.
// Defaults to oldest first.
func (s *HistoryServiceImpl) GetHistory(ctx context.Context, q ports.HistoryQuery) ([]domain.LedgerEntry, error) {
	params, err := parseHistoryQuery(q)
	if err != nil {
		return nil, err
	}

	wallet, err := s.walletRepo.GetByID(ctx, q.WalletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	entries, err := s.ledgerRepo.ListByWallet(ctx, params)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list entries: %w", err))
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	return entries, nil
}

func parseHistoryQuery(q ports.HistoryQuery) (ports.LedgerListParams, error) {
	params := ports.LedgerListParams{
		WalletID: q.WalletID,
		SortBy:   ports.SortByTimestamp,
	}

	switch sortBy := ports.LedgerSortField(strings.ToLower(strings.TrimSpace(q.SortBy))); sortBy {
	case "":
	case ports.SortByTimestamp, ports.SortByAmount:
		params.SortBy = sortBy
	default:
		return params, apperror.Validation(fmt.Sprintf("sortBy must be one of timestamp, amount; got %q", q.SortBy))
	}

	switch strings.ToLower(strings.TrimSpace(q.SortOrder)) {
	case "", "asc":
	case "desc":
		params.Descending = true
	default:
		return params, apperror.Validation(fmt.Sprintf("sortOrder must be asc or desc; got %q", q.SortOrder))
	}

	if q.Type != "" {
		t, err := domain.ParseEntryType(q.Type)
		if err != nil {
			return params, apperror.Validation(fmt.Sprintf("transactionType must be one of DEPOSIT, WITHDRAW, TRANSFER; got %q", q.Type))
		}
		params.Type = &t
	}

	return params, nil
}
