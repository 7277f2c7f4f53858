// internal/service/relay.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"privatepay-relay/internal/chain"
	"privatepay-relay/internal/domain"
	"privatepay-relay/internal/repository"
	"privatepay-relay/internal/util"
	"privatepay-relay/pkg/db"

	"github.com/shopspring/decimal"
)

// WithdrawalResult is the outcome of a successful withdrawal.
type WithdrawalResult struct {
	TxHash     string          `json:"txHash"`
	NewBalance decimal.Decimal `json:"newBalance"`
}

// WithdrawalRelay moves funds from the shared treasury to a destination
// address and debits the ledger only after on-chain confirmation.
type WithdrawalRelay interface {
	Withdraw(ctx context.Context, username string, amount decimal.Decimal, destination string) (*WithdrawalResult, error)
}

type withdrawalRelay struct {
	dbBeginner  db.DBTxBeginner
	dbExecutor  repository.DBExecutor
	resolver    AliasResolver
	balanceRepo repository.BalanceRepository
	paymentRepo repository.PaymentRepository
	chainClient chain.Client
	beginTx     db.BeginTxFunc
	commitTx    db.CommitTxFunc
	rollbackTx  db.RollbackTxFunc
	notifier    BalanceNotifier
	logger      *slog.Logger
}

// NewWithdrawalRelay creates a new WithdrawalRelay.
func NewWithdrawalRelay(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	resolver AliasResolver,
	balanceRepo repository.BalanceRepository,
	paymentRepo repository.PaymentRepository,
	chainClient chain.Client,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	notifier BalanceNotifier,
	logger *slog.Logger,
) WithdrawalRelay {
	return &withdrawalRelay{
		dbBeginner:  dbBeginner,
		dbExecutor:  dbExecutor,
		resolver:    resolver,
		balanceRepo: balanceRepo,
		paymentRepo: paymentRepo,
		chainClient: chainClient,
		beginTx:     beginTx,
		commitTx:    commitTx,
		rollbackTx:  rollbackTx,
		notifier:    notifier,
		logger:      logger,
	}
}

// Withdraw executes the relay sequence: validate, balance precheck, on-chain
// transfer, confirmation wait, atomic debit, withdrawal entry. The transfer
// runs before the debit: reversing the order would lose user funds whenever
// a debited transfer then failed. The debit re-validates the balance
// atomically, so a concurrent withdrawal that drained the account between
// precheck and debit surfaces here instead of overdrawing.
func (s *withdrawalRelay) Withdraw(ctx context.Context, username string, amount decimal.Decimal, destination string) (*WithdrawalResult, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username required: %w", util.ErrInvalidInput)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be positive: %w", util.ErrInvalidInput)
	}

	destAddress := strings.TrimSpace(destination)
	if !chain.IsValidAddress(destAddress) {
		// Destination given as alias/username; resolve it to a wallet.
		res, err := s.resolver.Resolve(ctx, destAddress)
		if err != nil {
			return nil, err
		}
		destAddress = res.WalletAddress
		if !chain.IsValidAddress(destAddress) {
			return nil, fmt.Errorf("destination '%s' has no valid wallet address: %w", destination, util.ErrInvalidInput)
		}
	}

	// Precheck before spending gas. Not authoritative; the debit re-checks.
	balance, err := s.balanceRepo.GetBalance(ctx, s.dbExecutor, username)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.ErrInsufficientBalance
		}
		return nil, fmt.Errorf("withdraw: failed to load balance: %w", util.ErrLedgerUnavailable)
	}
	if amount.GreaterThan(balance.AvailableBalance) {
		return nil, util.ErrInsufficientBalance
	}

	txHash, err := s.chainClient.SendTransfer(ctx, destAddress, amount)
	if err != nil {
		if util.IsError(err, util.ErrChainTransferFailed) || util.IsError(err, util.ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", util.ErrChainTransferFailed, err)
	}

	// The transfer exists on-chain now. The client abandoning the request
	// must not stop confirmation or the debit, so everything below runs on a
	// detached context.
	detached := context.WithoutCancel(ctx)

	if err := s.chainClient.WaitForConfirmation(detached, txHash); err != nil {
		// Failed means no transfer happened and the credit is intact.
		// Unknown means it may still land; surfaced distinctly, never
		// retried here.
		return nil, err
	}

	result, err := s.debitAndRecord(detached, username, amount, txHash)
	if err != nil {
		// Treasury funds left on-chain without a matching debit. This is the
		// invariant-violation class: alert, do not retry.
		s.logger.Error("invariant_violation: chain transfer confirmed but ledger debit failed",
			"username", username,
			"amount", amount.String(),
			"tx_hash", txHash,
			"error", err,
		)
		return nil, fmt.Errorf("%w (tx %s): %v", util.ErrLedgerDebitFailed, txHash, err)
	}

	s.notifier.NotifyBalanceChanged(username, result.NewBalance)
	return result, nil
}

// debitAndRecord applies the post-confirmation ledger mutation: atomic debit
// plus the immutable withdrawal entry, in one database transaction.
func (s *withdrawalRelay) debitAndRecord(ctx context.Context, username string, amount decimal.Decimal, txHash string) (*WithdrawalResult, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("transaction controller does not implement DBExecutor")
	}

	balance, err := s.balanceRepo.AdjustBalance(ctx, txExecutor, username, amount.Neg(), "")
	if err != nil {
		return nil, fmt.Errorf("failed to debit '%s': %w", username, err)
	}

	withdrawal := domain.NewWithdrawal(username, amount, txHash)
	if err := s.paymentRepo.CreatePayment(ctx, txExecutor, withdrawal); err != nil {
		return nil, fmt.Errorf("failed to append withdrawal entry: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &WithdrawalResult{TxHash: txHash, NewBalance: balance.AvailableBalance}, nil
}
