// internal/service/service_fakes_test.go
package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"

	"privatepay-relay/internal/domain"
	"privatepay-relay/internal/repository"
	"privatepay-relay/internal/util"
	"privatepay-relay/pkg/db"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// memLedger is an in-memory ledger store shared by the fake repositories.
// AdjustBalance holds the mutex across read-check-write, mirroring the row
// lock the Postgres implementation relies on, so the concurrency properties
// tested here exercise the same serialization contract.
type memLedger struct {
	mu            sync.Mutex
	usersByName   map[string]*domain.User
	usersByWallet map[string]*domain.User
	balances      map[string]*domain.Balance
	payments      []domain.Payment
	linksByAlias  map[string]*domain.PaymentLink
}

func newMemLedger() *memLedger {
	return &memLedger{
		usersByName:   make(map[string]*domain.User),
		usersByWallet: make(map[string]*domain.User),
		balances:      make(map[string]*domain.Balance),
		linksByAlias:  make(map[string]*domain.PaymentLink),
	}
}

// --- fake repositories -------------------------------------------------

type fakeUserRepo struct{ store *memLedger }

func (r *fakeUserRepo) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.usersByName[user.Username]; ok {
		return util.ErrDuplicateEntry
	}
	if _, ok := r.store.usersByWallet[user.WalletAddress]; ok {
		return util.ErrDuplicateEntry
	}
	user.ID = int64(len(r.store.usersByName) + 1)
	u := *user
	r.store.usersByName[u.Username] = &u
	r.store.usersByWallet[u.WalletAddress] = &u
	return nil
}

func (r *fakeUserRepo) GetUserByWallet(ctx context.Context, q repository.DBExecutor, walletAddress string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if u, ok := r.store.usersByWallet[walletAddress]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, util.ErrNotFound
}

func (r *fakeUserRepo) GetUserByUsername(ctx context.Context, q repository.DBExecutor, username string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if u, ok := r.store.usersByName[username]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, util.ErrNotFound
}

func (r *fakeUserRepo) UpdateUsername(ctx context.Context, q repository.DBExecutor, walletAddress, username string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.usersByWallet[walletAddress]
	if !ok {
		return nil, util.ErrNotFound
	}
	if other, ok := r.store.usersByName[username]; ok && other.WalletAddress != walletAddress {
		return nil, util.ErrDuplicateEntry
	}
	delete(r.store.usersByName, u.Username)
	u.Username = username
	r.store.usersByName[username] = u
	copied := *u
	return &copied, nil
}

type fakeBalanceRepo struct{ store *memLedger }

func (r *fakeBalanceRepo) CreateBalance(ctx context.Context, q repository.DBExecutor, balance *domain.Balance) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.balances[balance.Username]; ok {
		return util.ErrDuplicateEntry
	}
	b := *balance
	r.store.balances[b.Username] = &b
	return nil
}

func (r *fakeBalanceRepo) GetBalance(ctx context.Context, q repository.DBExecutor, username string) (*domain.Balance, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if b, ok := r.store.balances[username]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, util.ErrNotFound
}

func (r *fakeBalanceRepo) GetBalanceByWallet(ctx context.Context, q repository.DBExecutor, walletAddress string) (*domain.Balance, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, b := range r.store.balances {
		if b.WalletAddress == walletAddress {
			copied := *b
			return &copied, nil
		}
	}
	return nil, util.ErrNotFound
}

func (r *fakeBalanceRepo) AdjustBalance(ctx context.Context, q repository.DBExecutor, username string, delta decimal.Decimal, walletFallback string) (*domain.Balance, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.balances[username]
	if !ok {
		if delta.IsNegative() {
			return nil, util.ErrInsufficientBalance
		}
		b = domain.NewBalance(username, walletFallback)
		r.store.balances[username] = b
	}
	next := b.AvailableBalance.Add(delta)
	if next.IsNegative() {
		return nil, util.ErrInsufficientBalance
	}
	b.AvailableBalance = next
	copied := *b
	return &copied, nil
}

type fakePaymentRepo struct{ store *memLedger }

func (r *fakePaymentRepo) CreatePayment(ctx context.Context, q repository.DBExecutor, payment *domain.Payment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if payment.Status == domain.PaymentStatusCompleted {
		for _, p := range r.store.payments {
			if p.TxHash == payment.TxHash && p.Status == domain.PaymentStatusCompleted {
				return util.ErrDuplicateEntry
			}
		}
	}
	r.store.payments = append(r.store.payments, *payment)
	return nil
}

func (r *fakePaymentRepo) GetPaymentByTxHash(ctx context.Context, q repository.DBExecutor, txHash string) (*domain.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.payments {
		if p.TxHash == txHash && p.Status == domain.PaymentStatusCompleted {
			copied := p
			return &copied, nil
		}
	}
	return nil, util.ErrNotFound
}

func (r *fakePaymentRepo) GetPaymentsReceived(ctx context.Context, q repository.DBExecutor, recipients []string, limit, offset int) ([]domain.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	wanted := make(map[string]struct{}, len(recipients))
	for _, rec := range recipients {
		wanted[rec] = struct{}{}
	}
	out := []domain.Payment{}
	for _, p := range r.store.payments {
		if _, ok := wanted[p.RecipientUsername]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) GetPaymentsSent(ctx context.Context, q repository.DBExecutor, senderAddress string, limit, offset int) ([]domain.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []domain.Payment{}
	for _, p := range r.store.payments {
		if p.SenderAddress == senderAddress {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) SumAmounts(ctx context.Context, q repository.DBExecutor, username string) (decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	total := decimal.Zero
	for _, p := range r.store.payments {
		if username == "" || p.RecipientUsername == username {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

type fakeLinkRepo struct{ store *memLedger }

func (r *fakeLinkRepo) CreateLink(ctx context.Context, q repository.DBExecutor, link *domain.PaymentLink) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.linksByAlias[link.Alias]; ok {
		return util.ErrDuplicateEntry
	}
	l := *link
	r.store.linksByAlias[l.Alias] = &l
	return nil
}

func (r *fakeLinkRepo) GetLinkByAlias(ctx context.Context, q repository.DBExecutor, alias string) (*domain.PaymentLink, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if l, ok := r.store.linksByAlias[alias]; ok {
		copied := *l
		return &copied, nil
	}
	return nil, util.ErrNotFound
}

func (r *fakeLinkRepo) GetLinksByWallet(ctx context.Context, q repository.DBExecutor, walletAddress string) ([]domain.PaymentLink, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []domain.PaymentLink{}
	for _, l := range r.store.linksByAlias {
		if l.WalletAddress == walletAddress {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *fakeLinkRepo) DeleteLink(ctx context.Context, q repository.DBExecutor, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for alias, l := range r.store.linksByAlias {
		if l.ID == id {
			delete(r.store.linksByAlias, alias)
			return nil
		}
	}
	return util.ErrNotFound
}

// --- transaction plumbing ----------------------------------------------

// nopTx satisfies both db.TxController and repository.DBExecutor; the fake
// repositories serialize internally, so transactions are a no-op here.
type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }
func (nopTx) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}
func (nopTx) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}
func (nopTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (nopTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func testBeginTx(ctx context.Context, dbConn db.DBTxBeginner) (db.TxController, error) {
	return nopTx{}, nil
}

func testCommitTx(tx db.TxController) error { return tx.Commit() }

func testRollbackTx(tx db.TxController) { _ = tx.Rollback() }

// --- notifier ----------------------------------------------------------

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) NotifyBalanceChanged(username string, balance decimal.Decimal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, username)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

// --- test environment --------------------------------------------------

type testEnv struct {
	store    *memLedger
	users    *fakeUserRepo
	balances *fakeBalanceRepo
	payments *fakePaymentRepo
	links    *fakeLinkRepo
	notifier *recordingNotifier
	resolver AliasResolver
	logger   *slog.Logger
}

func newTestEnv() *testEnv {
	store := newMemLedger()
	users := &fakeUserRepo{store: store}
	links := &fakeLinkRepo{store: store}
	return &testEnv{
		store:    store,
		users:    users,
		balances: &fakeBalanceRepo{store: store},
		payments: &fakePaymentRepo{store: store},
		links:    links,
		notifier: &recordingNotifier{},
		resolver: NewAliasResolver(nil, users, links),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (e *testEnv) recorder() PaymentRecorder {
	return NewPaymentRecorder(nil, nil, e.resolver, e.balances, e.payments,
		testBeginTx, testCommitTx, testRollbackTx, e.notifier, e.logger)
}

func (e *testEnv) relay(chainClient *MockChainClient) WithdrawalRelay {
	return NewWithdrawalRelay(nil, nil, e.resolver, e.balances, e.payments, chainClient,
		testBeginTx, testCommitTx, testRollbackTx, e.notifier, e.logger)
}

func (e *testEnv) ledger() LedgerService {
	return NewLedgerService(nil, nil, e.users, e.balances, e.payments, e.links,
		testBeginTx, testCommitTx, testRollbackTx, e.logger)
}

// seedUser registers a user with an initial balance, bypassing the services.
func (e *testEnv) seedUser(username, walletAddress string, balance decimal.Decimal) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	u := domain.NewUser(walletAddress, username)
	u.ID = int64(len(e.store.usersByName) + 1)
	e.store.usersByName[username] = u
	e.store.usersByWallet[walletAddress] = u
	b := domain.NewBalance(username, walletAddress)
	b.AvailableBalance = balance
	e.store.balances[username] = b
}

func (e *testEnv) seedLink(alias, username, walletAddress string) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	e.store.linksByAlias[alias] = domain.NewPaymentLink(walletAddress, username, alias)
}

func (e *testEnv) balanceOf(username string) decimal.Decimal {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	if b, ok := e.store.balances[username]; ok {
		return b.AvailableBalance
	}
	return decimal.Zero
}

func (e *testEnv) paymentsFor(username string) []domain.Payment {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	out := []domain.Payment{}
	for _, p := range e.store.payments {
		if p.RecipientUsername == username {
			out = append(out, p)
		}
	}
	return out
}

// --- chain client ------------------------------------------------------

// MockChainClient is a mock implementation of chain.Client.
type MockChainClient struct {
	mock.Mock
}

func (m *MockChainClient) SendTransfer(ctx context.Context, toAddress string, amount decimal.Decimal) (string, error) {
	args := m.Called(ctx, toAddress, amount)
	return args.String(0), args.Error(1)
}

func (m *MockChainClient) WaitForConfirmation(ctx context.Context, txHash string) error {
	args := m.Called(ctx, txHash)
	return args.Error(0)
}

func (m *MockChainClient) TreasuryBalance(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockChainClient) TreasuryAddress() string {
	args := m.Called()
	return args.String(0)
}
