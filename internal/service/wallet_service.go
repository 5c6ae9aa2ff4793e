package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const idempotencyTTL = 24 * time.Hour

// WalletServiceImpl implements ports.WalletService.
//
// Every mutation follows the same protocol: validate, replay a recorded
// idempotent result if any, convert the amount (outside the DB transaction),
// then lock the wallet rows, mutate, append exactly one ledger entry and
// commit. Post-commit work (cache, notification) is best effort.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	ledgerRepo ports.LedgerRepository
	idempRepo  ports.IdempotencyRepository
	idempCache ports.IdempotencyCache
	converter  ports.CurrencyConverter
	notifier   ports.LedgerNotifier
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	walletRepo ports.WalletRepository,
	ledgerRepo ports.LedgerRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	converter ports.CurrencyConverter,
	notifier ports.LedgerNotifier,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
		idempRepo:  idempRepo,
		idempCache: idempCache,
		converter:  converter,
		notifier:   notifier,
		transactor: transactor,
		log:        log,
	}
}

// Deposit credits a wallet.
func (s *WalletServiceImpl) Deposit(ctx context.Context, req ports.MutationRequest) (*ports.OperationResult, error) {
	return s.mutate(ctx, req, domain.EntryTypeDeposit)
}

// Withdraw debits a wallet. The balance never goes below zero.
func (s *WalletServiceImpl) Withdraw(ctx context.Context, req ports.MutationRequest) (*ports.OperationResult, error) {
	return s.mutate(ctx, req, domain.EntryTypeWithdraw)
}

func (s *WalletServiceImpl) mutate(ctx context.Context, req ports.MutationRequest, op domain.EntryType) (*ports.OperationResult, error) {
	if err := domain.ValidateAmount(req.Amount); err != nil {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.Currency != "" && !domain.IsSupportedCurrency(req.Currency) {
		return nil, apperror.ErrUnknownCurrency(req.Currency)
	}

	idempKey := ""
	if req.IdempotencyKey != "" {
		idempKey = domain.BuildIdempotencyKey(req.WalletID, op, req.IdempotencyKey)
		if res, err := s.replay(ctx, idempKey); res != nil || err != nil {
			return res, err
		}
	}

	// The currency of a wallet never changes, so reading it unlocked is safe.
	wallet, err := s.walletRepo.GetByID(ctx, req.WalletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	amount := req.Amount
	if req.Currency != "" {
		if amount, err = s.convertAmount(ctx, req.Currency, wallet.Currency, amount); err != nil {
			return nil, err
		}
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	locked, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, req.WalletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if locked == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	if op == domain.EntryTypeDeposit {
		err = locked.Credit(amount)
	} else {
		err = locked.Debit(amount)
	}
	if err != nil {
		return nil, mapDomainError(err)
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, locked.ID, locked.Balance); err != nil {
		return nil, mapDomainError(fmt.Errorf("update balance: %w", err))
	}

	entry, err := domain.NewIntraEntry(locked.ID, op, amount)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("build entry: %w", err))
	}
	if err := s.ledgerRepo.CreateIntra(ctx, dbTx, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("append entry: %w", err))
	}

	result := &ports.OperationResult{
		WalletID: locked.ID,
		Balance:  locked.Balance,
		Currency: locked.Currency,
		Entry:    entry.View(),
	}

	return s.commit(ctx, dbTx, idempKey, result, func(e *zerolog.Event) {
		e.Str("op", string(op)).
			Str("wallet_id", locked.ID.String()).
			Str("amount", amount.String())
	})
}

// Transfer moves funds between two wallets. Amount is in the sender's currency;
// the recipient is credited the converted amount.
func (s *WalletServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*ports.OperationResult, error) {
	if err := domain.ValidateAmount(req.Amount); err != nil {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.SenderWalletID == req.RecipientWalletID {
		return nil, apperror.Validation("Sender and recipient wallets must differ")
	}

	idempKey := ""
	if req.IdempotencyKey != "" {
		idempKey = domain.BuildIdempotencyKey(req.SenderWalletID, domain.EntryTypeTransfer, req.IdempotencyKey)
		if res, err := s.replay(ctx, idempKey); res != nil || err != nil {
			return res, err
		}
	}

	sender, err := s.walletRepo.GetByID(ctx, req.SenderWalletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get sender wallet: %w", err))
	}
	recipient, err := s.walletRepo.GetByID(ctx, req.RecipientWalletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get recipient wallet: %w", err))
	}
	if sender == nil || recipient == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	credited, err := s.convertAmount(ctx, sender.Currency, recipient.Currency, req.Amount)
	if err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	from, to, err := s.lockPair(ctx, dbTx, req.SenderWalletID, req.RecipientWalletID)
	if err != nil {
		return nil, err
	}

	if err := from.Debit(req.Amount); err != nil {
		return nil, mapDomainError(err)
	}
	if err := to.Credit(credited); err != nil {
		return nil, mapDomainError(err)
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, from.ID, from.Balance); err != nil {
		return nil, mapDomainError(fmt.Errorf("update sender balance: %w", err))
	}
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, to.ID, to.Balance); err != nil {
		return nil, mapDomainError(fmt.Errorf("update recipient balance: %w", err))
	}

	entry, err := domain.NewInterEntry(from.ID, to.ID, req.Amount, credited)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("build entry: %w", err))
	}
	if err := s.ledgerRepo.CreateInter(ctx, dbTx, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("append entry: %w", err))
	}

	result := &ports.OperationResult{
		WalletID: from.ID,
		Balance:  from.Balance,
		Currency: from.Currency,
		Entry:    entry.View(),
	}

	return s.commit(ctx, dbTx, idempKey, result, func(e *zerolog.Event) {
		e.Str("op", string(domain.EntryTypeTransfer)).
			Str("sender_wallet_id", from.ID.String()).
			Str("recipient_wallet_id", to.ID.String()).
			Str("amount", req.Amount.String()).
			Str("credited", credited.String())
	})
}

// GetBalance returns the wallet balance, converted to displayCurrency when given.
func (s *WalletServiceImpl) GetBalance(ctx context.Context, walletID uuid.UUID, displayCurrency string) (*ports.BalanceView, error) {
	if displayCurrency != "" && !domain.IsSupportedCurrency(displayCurrency) {
		return nil, apperror.ErrUnknownCurrency(displayCurrency)
	}

	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	view := &ports.BalanceView{
		WalletID: wallet.ID,
		Balance:  wallet.Balance,
		Currency: wallet.Currency,
	}
	if displayCurrency == "" {
		return view, nil
	}

	display := wallet.Balance
	target := domain.NormalizeCurrency(displayCurrency)
	if target != wallet.Currency && !wallet.Balance.IsZero() {
		if display, err = s.converter.Convert(ctx, wallet.Currency, target, wallet.Balance); err != nil {
			return nil, asConversionError(err)
		}
	}
	view.DisplayBalance = &display
	view.DisplayCurrency = target

	return view, nil
}

// lockPair locks both wallets in ascending id order so two opposing transfers
// cannot deadlock. It returns them as (sender, recipient).
func (s *WalletServiceImpl) lockPair(ctx context.Context, tx pgx.Tx, senderID, recipientID uuid.UUID) (*domain.Wallet, *domain.Wallet, error) {
	first, second := senderID, recipientID
	if bytes.Compare(first[:], second[:]) > 0 {
		first, second = second, first
	}

	locked := make(map[uuid.UUID]*domain.Wallet, 2)
	for _, id := range []uuid.UUID{first, second} {
		w, err := s.walletRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return nil, nil, apperror.InternalError(fmt.Errorf("lock wallet %s: %w", id, err))
		}
		if w == nil {
			return nil, nil, apperror.ErrWalletNotFound()
		}
		locked[id] = w
	}

	return locked[senderID], locked[recipientID], nil
}

// convertAmount converts a mutation amount into the target wallet's currency.
func (s *WalletServiceImpl) convertAmount(ctx context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	if domain.NormalizeCurrency(from) == domain.NormalizeCurrency(to) {
		return amount, nil
	}

	converted, err := s.converter.Convert(ctx, from, to, amount)
	if err != nil {
		return decimal.Zero, asConversionError(err)
	}
	// Tiny amounts can round to zero in a weaker currency.
	if err := domain.ValidateAmount(converted); err != nil {
		return decimal.Zero, apperror.ErrInvalidAmount()
	}
	return converted, nil
}

// commit records the idempotent result in the open transaction, commits, and
// runs the post-commit hooks.
func (s *WalletServiceImpl) commit(
	ctx context.Context,
	dbTx pgx.Tx,
	idempKey string,
	result *ports.OperationResult,
	logFields func(e *zerolog.Event),
) (*ports.OperationResult, error) {
	var respJSON []byte
	if idempKey != "" {
		var err error
		respJSON, err = json.Marshal(result)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("marshal result: %w", err))
		}

		err = s.idempRepo.Create(ctx, dbTx, &domain.IdempotencyLog{
			Key:          idempKey,
			EntryID:      result.Entry.ID,
			ResponseJSON: respJSON,
			CreatedAt:    time.Now().UTC(),
		})
		if errors.Is(err, domain.ErrIdempotencyConflict) {
			// A concurrent request with the same key won; discard ours and return theirs.
			_ = dbTx.Rollback(ctx)
			return s.replayFromDB(ctx, idempKey)
		}
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("save idempotency log: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, mapDomainError(fmt.Errorf("commit tx: %w", err))
	}

	if idempKey != "" {
		if err := s.idempCache.Set(ctx, idempKey, respJSON, idempotencyTTL); err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotent result")
		}
	}

	if err := s.notifier.Notify(ctx, result.Entry); err != nil {
		s.log.Warn().Err(err).Str("entry_id", result.Entry.ID.String()).Msg("ledger notification dropped")
	}

	e := s.log.Info().
		Str("entry_id", result.Entry.ID.String()).
		Str("balance", result.Balance.String())
	logFields(e)
	e.Msg("ledger entry committed")

	return result, nil
}

// replay returns a previously recorded result for key, or nil when none exists.
// A Redis failure falls through to the database.
func (s *WalletServiceImpl) replay(ctx context.Context, key string) (*ports.OperationResult, error) {
	cached, err := s.idempCache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		return decodeResult(cached)
	}

	idempLog, err := s.idempRepo.Get(ctx, key)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
	}
	if idempLog == nil {
		return nil, nil
	}
	return decodeResult(idempLog.ResponseJSON)
}

func (s *WalletServiceImpl) replayFromDB(ctx context.Context, key string) (*ports.OperationResult, error) {
	idempLog, err := s.idempRepo.Get(ctx, key)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
	}
	if idempLog == nil {
		return nil, apperror.InternalError(fmt.Errorf("idempotency log %q vanished after conflict", key))
	}
	return decodeResult(idempLog.ResponseJSON)
}

func decodeResult(data []byte) (*ports.OperationResult, error) {
	var res ports.OperationResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached result: %w", err))
	}
	return &res, nil
}

// mapDomainError turns domain rule violations into typed failures.
func mapDomainError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return apperror.ErrInsufficientFunds()
	case errors.Is(err, domain.ErrNonPositiveAmount), errors.Is(err, domain.ErrAmountPrecision),
		errors.Is(err, domain.ErrAmountTooLarge):
		return apperror.ErrInvalidAmount()
	default:
		return apperror.InternalError(err)
	}
}

func asConversionError(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.ErrConversionUnavailable(err)
}
