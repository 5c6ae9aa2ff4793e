package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// UserServiceImpl implements ports.UserService.
type UserServiceImpl struct {
	userRepo   ports.UserRepository
	walletRepo ports.WalletRepository
	hashSvc    ports.HashService
	tokenSvc   ports.TokenService
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewUserService creates a new UserServiceImpl.
func NewUserService(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{
		userRepo:   userRepo,
		walletRepo: walletRepo,
		hashSvc:    hashSvc,
		tokenSvc:   tokenSvc,
		transactor: transactor,
		log:        log,
	}
}

// Register creates a user and its zero-balance wallet in one transaction.
// Input is validated before anything is written.
func (s *UserServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*ports.UserProfile, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, apperror.Validation("Username is required")
	}
	if req.Password == "" {
		return nil, apperror.Validation("Password is required")
	}

	currency := domain.BaseCurrency
	if req.Currency != "" {
		if !domain.IsSupportedCurrency(req.Currency) {
			return nil, apperror.ErrUnknownCurrency(req.Currency)
		}
		currency = domain.NormalizeCurrency(req.Currency)
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check username: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrDuplicateUsername()
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	user, err := domain.NewUser(username, passwordHash)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}
	wallet := domain.NewWallet(user.ID, currency)

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.userRepo.Create(ctx, dbTx, user); err != nil {
		// Lost a race with a concurrent registration of the same name.
		if errors.Is(err, domain.ErrUsernameTaken) {
			return nil, apperror.ErrDuplicateUsername()
		}
		return nil, apperror.InternalError(fmt.Errorf("create user: %w", err))
	}
	if err := s.walletRepo.Create(ctx, dbTx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("user_id", user.ID.String()).
		Str("wallet_id", wallet.ID.String()).
		Str("currency", wallet.Currency).
		Msg("user registered")

	return &ports.UserProfile{User: user, Wallet: wallet}, nil
}

// Login validates credentials and returns a JWT token.
func (s *UserServiceImpl) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, user.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiry, err := s.tokenSvc.Generate(user.ID, user.Username)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	return token, expiry, nil
}

// GetProfile returns the user and its wallet.
func (s *UserServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*ports.UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound()
	}

	wallet, err := s.walletOf(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &ports.UserProfile{User: user, Wallet: wallet}, nil
}

// ResolveWallet finds the wallet of the referenced user, which must be the caller.
// An empty reference means the caller.
func (s *UserServiceImpl) ResolveWallet(ctx context.Context, callerID uuid.UUID, ref ports.UserRef) (*domain.Wallet, error) {
	var (
		user *domain.User
		err  error
	)
	switch {
	case ref.UserID != nil:
		user, err = s.userRepo.GetByID(ctx, *ref.UserID)
	case ref.Username != "":
		user, err = s.userRepo.GetByUsername(ctx, strings.TrimSpace(ref.Username))
	default:
		user, err = s.userRepo.GetByID(ctx, callerID)
	}
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound()
	}
	if ref.UserID != nil && ref.Username != "" && !strings.EqualFold(strings.TrimSpace(ref.Username), user.Username) {
		return nil, apperror.Validation("user_id and username refer to different users")
	}
	if user.ID != callerID {
		return nil, apperror.ErrUnauthorizedAccess()
	}

	return s.walletOf(ctx, user.ID)
}

// AuthorizeWallet loads a wallet and checks the caller owns it.
func (s *UserServiceImpl) AuthorizeWallet(ctx context.Context, callerID, walletID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	if wallet.UserID != callerID {
		return nil, apperror.ErrUnauthorizedAccess()
	}
	return wallet, nil
}

func (s *UserServiceImpl) walletOf(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	return wallet, nil
}
