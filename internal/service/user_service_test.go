package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type userTestDeps struct {
	svc        *UserServiceImpl
	userRepo   *mocks.MockUserRepository
	walletRepo *mocks.MockWalletRepository
	hashSvc    *mocks.MockHashService
	tokenSvc   *mocks.MockTokenService
	transactor *mocks.MockDBTransactor
}

func setupUserService(t *testing.T) *userTestDeps {
	ctrl := gomock.NewController(t)
	d := &userTestDeps{
		userRepo:   mocks.NewMockUserRepository(ctrl),
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		hashSvc:    mocks.NewMockHashService(ctrl),
		tokenSvc:   mocks.NewMockTokenService(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
	}
	d.svc = NewUserService(d.userRepo, d.walletRepo, d.hashSvc, d.tokenSvc, d.transactor, zerolog.Nop())
	return d
}

// ==================== Register ====================

func TestUserService_Register_Success(t *testing.T) {
	d := setupUserService(t)
	ctx := context.Background()
	tx := &mockTx{}

	d.userRepo.EXPECT().GetByUsername(ctx, "alice").Return(nil, nil)
	d.hashSvc.EXPECT().Hash("pw1").Return("hashed", nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)

	var createdUser *domain.User
	d.userRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, u *domain.User) error {
			createdUser = u
			assert.Equal(t, "hashed", u.PasswordHash)
			return nil
		})
	d.walletRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, w *domain.Wallet) error {
			assert.Equal(t, createdUser.ID, w.UserID)
			assert.True(t, w.Balance.IsZero())
			assert.Equal(t, "USD", w.Currency)
			return nil
		})

	profile, err := d.svc.Register(ctx, ports.RegisterRequest{Username: " alice ", Password: "pw1"})
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.User.Username)
	assert.True(t, profile.Wallet.Balance.IsZero())
}

func TestUserService_Register_WithCurrency(t *testing.T) {
	d := setupUserService(t)
	ctx := context.Background()
	tx := &mockTx{}

	d.userRepo.EXPECT().GetByUsername(ctx, "bob").Return(nil, nil)
	d.hashSvc.EXPECT().Hash("pw").Return("hashed", nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.userRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.walletRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	profile, err := d.svc.Register(ctx, ports.RegisterRequest{Username: "bob", Password: "pw", Currency: "eur"})
	require.NoError(t, err)
	assert.Equal(t, "EUR", profile.Wallet.Currency)
}

func TestUserService_Register_ValidationBeforeAnyWrite(t *testing.T) {
	d := setupUserService(t)

	// No repository call is expected: the mocks fail the test if one happens.
	_, err := d.svc.Register(context.Background(), ports.RegisterRequest{Username: "", Password: "pw"})
	assertAppError(t, err, "USR_003")

	_, err = d.svc.Register(context.Background(), ports.RegisterRequest{Username: "   ", Password: "pw"})
	assertAppError(t, err, "USR_003")

	_, err = d.svc.Register(context.Background(), ports.RegisterRequest{Username: "carol", Password: ""})
	assertAppError(t, err, "USR_003")

	_, err = d.svc.Register(context.Background(), ports.RegisterRequest{Username: "carol", Password: "pw", Currency: "XYZ"})
	assertAppError(t, err, "CUR_001")
}

func TestUserService_Register_DuplicatePreCheck(t *testing.T) {
	d := setupUserService(t)
	ctx := context.Background()

	d.userRepo.EXPECT().GetByUsername(ctx, "alice").Return(&domain.User{ID: uuid.New(), Username: "alice"}, nil)

	_, err := d.svc.Register(ctx, ports.RegisterRequest{Username: "alice", Password: "pw"})
	assertAppError(t, err, "USR_002")
}

func TestUserService_Register_DuplicateOnInsert(t *testing.T) {
	d := setupUserService(t)
	ctx := context.Background()
	tx := &mockTx{}

	d.userRepo.EXPECT().GetByUsername(ctx, "alice").Return(nil, nil)
	d.hashSvc.EXPECT().Hash("pw").Return("hashed", nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.userRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(errors.Join(errors.New("insert user"), domain.ErrUsernameTaken))

	_, err := d.svc.Register(ctx, ports.RegisterRequest{Username: "alice", Password: "pw"})
	assertAppError(t, err, "USR_002")
}

// ==================== Login ====================

func TestUserService_Login(t *testing.T) {
	d := setupUserService(t)
	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Username: "alice", PasswordHash: "hashed"}
	expiry := time.Now().Add(time.Hour)

	d.userRepo.EXPECT().GetByUsername(ctx, "alice").Return(user, nil)
	d.hashSvc.EXPECT().Verify("pw1", "hashed").Return(true, nil)
	d.tokenSvc.EXPECT().Generate(user.ID, "alice").Return("jwt", expiry, nil)

	token, exp, err := d.svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "jwt", token)
	assert.Equal(t, expiry, exp)
}

func TestUserService_Login_InvalidCredentials(t *testing.T) {
	d := setupUserService(t)
	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Username: "alice", PasswordHash: "hashed"}

	d.userRepo.EXPECT().GetByUsername(ctx, "ghost").Return(nil, nil)
	_, _, err := d.svc.Login(ctx, "ghost", "pw")
	assertAppError(t, err, "AUTH_001")

	d.userRepo.EXPECT().GetByUsername(ctx, "alice").Return(user, nil)
	d.hashSvc.EXPECT().Verify("wrong", "hashed").Return(false, nil)
	_, _, err = d.svc.Login(ctx, "alice", "wrong")
	assertAppError(t, err, "AUTH_001")
}

// ==================== Directory ====================

func TestUserService_GetProfile(t *testing.T) {
	d := setupUserService(t)
	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Username: "alice"}
	wallet := &domain.Wallet{ID: uuid.New(), UserID: user.ID, Currency: "USD"}

	d.userRepo.EXPECT().GetByID(ctx, user.ID).Return(user, nil)
	d.walletRepo.EXPECT().GetByUserID(ctx, user.ID).Return(wallet, nil)

	profile, err := d.svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, wallet.ID, profile.Wallet.ID)

	missing := uuid.New()
	d.userRepo.EXPECT().GetByID(ctx, missing).Return(nil, nil)
	_, err = d.svc.GetProfile(ctx, missing)
	assertAppError(t, err, "USR_001")
}

func TestUserService_ResolveWallet(t *testing.T) {
	ctx := context.Background()
	caller := &domain.User{ID: uuid.New(), Username: "alice"}
	other := &domain.User{ID: uuid.New(), Username: "bob"}
	wallet := &domain.Wallet{ID: uuid.New(), UserID: caller.ID}

	t.Run("empty ref means caller", func(t *testing.T) {
		d := setupUserService(t)
		d.userRepo.EXPECT().GetByID(ctx, caller.ID).Return(caller, nil)
		d.walletRepo.EXPECT().GetByUserID(ctx, caller.ID).Return(wallet, nil)

		got, err := d.svc.ResolveWallet(ctx, caller.ID, ports.UserRef{})
		require.NoError(t, err)
		assert.Equal(t, wallet.ID, got.ID)
	})

	t.Run("by username", func(t *testing.T) {
		d := setupUserService(t)
		d.userRepo.EXPECT().GetByUsername(ctx, "alice").Return(caller, nil)
		d.walletRepo.EXPECT().GetByUserID(ctx, caller.ID).Return(wallet, nil)

		_, err := d.svc.ResolveWallet(ctx, caller.ID, ports.UserRef{Username: "alice"})
		require.NoError(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		d := setupUserService(t)
		d.userRepo.EXPECT().GetByUsername(ctx, "nobody").Return(nil, nil)

		_, err := d.svc.ResolveWallet(ctx, caller.ID, ports.UserRef{Username: "nobody"})
		assertAppError(t, err, "USR_001")
	})

	t.Run("someone else's wallet", func(t *testing.T) {
		d := setupUserService(t)
		d.userRepo.EXPECT().GetByID(ctx, other.ID).Return(other, nil)

		_, err := d.svc.ResolveWallet(ctx, caller.ID, ports.UserRef{UserID: &other.ID})
		assertAppError(t, err, "AUTH_003")
	})

	t.Run("id and username disagree", func(t *testing.T) {
		d := setupUserService(t)
		d.userRepo.EXPECT().GetByID(ctx, caller.ID).Return(caller, nil)

		_, err := d.svc.ResolveWallet(ctx, caller.ID, ports.UserRef{UserID: &caller.ID, Username: "bob"})
		assertAppError(t, err, "USR_003")
	})
}

func TestUserService_AuthorizeWallet(t *testing.T) {
	d := setupUserService(t)
	ctx := context.Background()
	callerID := uuid.New()
	own := &domain.Wallet{ID: uuid.New(), UserID: callerID}
	foreign := &domain.Wallet{ID: uuid.New(), UserID: uuid.New()}
	missing := uuid.New()

	d.walletRepo.EXPECT().GetByID(ctx, own.ID).Return(own, nil)
	d.walletRepo.EXPECT().GetByID(ctx, foreign.ID).Return(foreign, nil)
	d.walletRepo.EXPECT().GetByID(ctx, missing).Return(nil, nil)

	got, err := d.svc.AuthorizeWallet(ctx, callerID, own.ID)
	require.NoError(t, err)
	assert.Equal(t, own.ID, got.ID)

	_, err = d.svc.AuthorizeWallet(ctx, callerID, foreign.ID)
	assertAppError(t, err, "AUTH_003")

	_, err = d.svc.AuthorizeWallet(ctx, callerID, missing)
	assertAppError(t, err, "WAL_003")
}
