package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for Postgres that keeps the properties the
// engine relies on: GetByIDForUpdate blocks while another transaction holds
// the row, and writes become visible only on Commit.
type memStore struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*domain.User
	wallets map[uuid.UUID]domain.Wallet
	rowLock map[uuid.UUID]*sync.Mutex
	intra   []domain.IntraEntry
	inter   []domain.InterEntry
	idem    map[string]domain.IdempotencyLog
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[uuid.UUID]*domain.User),
		wallets: make(map[uuid.UUID]domain.Wallet),
		rowLock: make(map[uuid.UUID]*sync.Mutex),
		idem:    make(map[string]domain.IdempotencyLog),
	}
}

type memTx struct {
	pgx.Tx
	store    *memStore
	held     []*sync.Mutex
	users    []*domain.User
	wallets  map[uuid.UUID]domain.Wallet
	balances map[uuid.UUID]decimal.Decimal
	intra    []domain.IntraEntry
	inter    []domain.InterEntry
	idem     []domain.IdempotencyLog
	done     bool
}

func (s *memStore) Begin(context.Context) (pgx.Tx, error) {
	return &memTx{
		store:    s,
		wallets:  make(map[uuid.UUID]domain.Wallet),
		balances: make(map[uuid.UUID]decimal.Decimal),
	}, nil
}

func (t *memTx) Commit(context.Context) error {
	if t.done {
		return errors.New("tx closed")
	}
	s := t.store
	s.mu.Lock()
	for _, l := range t.idem {
		if _, ok := s.idem[l.Key]; ok {
			s.mu.Unlock()
			t.release()
			return domain.ErrIdempotencyConflict
		}
	}
	for _, u := range t.users {
		s.users[u.ID] = u
	}
	for id, w := range t.wallets {
		s.wallets[id] = w
		s.rowLock[id] = &sync.Mutex{}
	}
	for id, b := range t.balances {
		w := s.wallets[id]
		w.Balance = b
		s.wallets[id] = w
	}
	s.intra = append(s.intra, t.intra...)
	s.inter = append(s.inter, t.inter...)
	for _, l := range t.idem {
		s.idem[l.Key] = l
	}
	s.mu.Unlock()
	t.release()
	return nil
}

func (t *memTx) Rollback(context.Context) error {
	if !t.done {
		t.release()
	}
	return nil
}

func (t *memTx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.held[i].Unlock()
	}
	t.held = nil
	t.done = true
}

// ---- UserRepository ----

type memUserRepo struct{ s *memStore }

func (r memUserRepo) Create(_ context.Context, tx pgx.Tx, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Username == u.Username {
			return domain.ErrUsernameTaken
		}
	}
	mt := tx.(*memTx)
	mt.users = append(mt.users, u)
	return nil
}

func (r memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.users[id], nil
}

func (r memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

// ---- WalletRepository ----

func (s *memStore) Create(_ context.Context, tx pgx.Tx, w *domain.Wallet) error {
	tx.(*memTx).wallets[w.ID] = *w
	return nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (s *memStore) GetByUserID(_ context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wallets {
		if w.UserID == userID {
			w := w
			return &w, nil
		}
	}
	return nil, nil
}

func (s *memStore) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	s.mu.Lock()
	lock, ok := s.rowLock[id]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	lock.Lock()
	mt := tx.(*memTx)
	mt.held = append(mt.held, lock)
	return s.GetByID(ctx, id)
}

func (s *memStore) UpdateBalance(_ context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error {
	if balance.IsNegative() {
		return domain.ErrInsufficientFunds
	}
	tx.(*memTx).balances[walletID] = balance
	return nil
}

// ---- LedgerRepository ----

type memLedgerRepo struct{ s *memStore }

func (r memLedgerRepo) CreateIntra(_ context.Context, tx pgx.Tx, e *domain.IntraEntry) error {
	mt := tx.(*memTx)
	mt.intra = append(mt.intra, *e)
	return nil
}

func (r memLedgerRepo) CreateInter(_ context.Context, tx pgx.Tx, e *domain.InterEntry) error {
	mt := tx.(*memTx)
	mt.inter = append(mt.inter, *e)
	return nil
}

func (r memLedgerRepo) ListByWallet(_ context.Context, p ports.LedgerListParams) ([]domain.LedgerEntry, error) {
	r.s.mu.Lock()
	var out []domain.LedgerEntry
	for _, e := range r.s.intra {
		if e.WalletID == p.WalletID {
			out = append(out, e.View())
		}
	}
	for _, e := range r.s.inter {
		if e.SenderWalletID == p.WalletID || e.RecipientWalletID == p.WalletID {
			out = append(out, e.View())
		}
	}
	r.s.mu.Unlock()

	if p.Type != nil {
		filtered := out[:0]
		for _, e := range out {
			if e.Type == *p.Type {
				filtered = append(filtered, e)
			}
		}
		out = filtered
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if p.Descending {
			a, b = b, a
		}
		var c int
		if p.SortBy == ports.SortByAmount {
			c = a.Amount.Cmp(b.Amount)
		} else {
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if c == 0 {
			return a.ID.String() < b.ID.String()
		}
		return c < 0
	})
	return out, nil
}

func (r memLedgerRepo) countFor(walletID uuid.UUID) int {
	entries, _ := r.ListByWallet(context.Background(), ports.LedgerListParams{WalletID: walletID, SortBy: ports.SortByTimestamp})
	return len(entries)
}

// ---- IdempotencyRepository ----

type memIdempotencyRepo struct{ s *memStore }

func (r memIdempotencyRepo) Create(_ context.Context, tx pgx.Tx, l *domain.IdempotencyLog) error {
	r.s.mu.Lock()
	_, exists := r.s.idem[l.Key]
	r.s.mu.Unlock()
	if exists {
		return domain.ErrIdempotencyConflict
	}
	mt := tx.(*memTx)
	mt.idem = append(mt.idem, *l)
	return nil
}

func (r memIdempotencyRepo) Get(_ context.Context, key string) (*domain.IdempotencyLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.idem[key]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

// ---- infrastructure fakes ----

type memCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m[key], nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = make(map[string][]byte)
	}
	if _, ok := c.m[key]; !ok {
		c.m[key] = value
	}
	return nil
}

type rateConverter struct{}

func (rateConverter) Convert(_ context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	return domain.ConvertAmount(from, to, amount)
}

type recordingNotifier struct {
	mu      sync.Mutex
	entries []domain.LedgerEntry
}

func (n *recordingNotifier) Notify(_ context.Context, e domain.LedgerEntry) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, e)
	return nil
}

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "plain:" + p, nil }
func (plainHasher) Verify(p, h string) (bool, error) { return h == "plain:"+p, nil }

// engine wires the real services over memStore.
type engine struct {
	store    *memStore
	ledger   memLedgerRepo
	wallets  *WalletServiceImpl
	history  *HistoryServiceImpl
	users    *UserServiceImpl
	notifier *recordingNotifier
}

func newEngine() *engine {
	s := newMemStore()
	ledger := memLedgerRepo{s: s}
	notifier := &recordingNotifier{}
	return &engine{
		store:    s,
		ledger:   ledger,
		notifier: notifier,
		wallets: NewWalletService(s, ledger, memIdempotencyRepo{s: s}, &memCache{},
			rateConverter{}, notifier, s, newTestLogger()),
		history: NewHistoryService(s, ledger),
		users: NewUserService(memUserRepo{s: s}, s, plainHasher{},
			NewJWTTokenService(testJWTSecret, time.Hour, "wallet-ledger"), s, newTestLogger()),
	}
}

// seedWallet commits a wallet with the given balance.
func (e *engine) seedWallet(currency, balance string) uuid.UUID {
	w := domain.NewWallet(uuid.New(), currency)
	w.Balance = decimal.RequireFromString(balance)
	tx, _ := e.store.Begin(context.Background())
	_ = e.store.Create(context.Background(), tx, w)
	_ = tx.Commit(context.Background())
	return w.ID
}

func (e *engine) balance(id uuid.UUID) decimal.Decimal {
	w, _ := e.store.GetByID(context.Background(), id)
	return w.Balance
}
