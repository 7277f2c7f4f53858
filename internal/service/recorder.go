// internal/service/recorder.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"privatepay-relay/internal/domain"
	"privatepay-relay/internal/repository"
	"privatepay-relay/internal/util"
	"privatepay-relay/pkg/db"

	"github.com/shopspring/decimal"
)

// BalanceNotifier receives balance-changed notifications after ledger
// mutations commit. Delivery is best effort and outside the transaction.
type BalanceNotifier interface {
	NotifyBalanceChanged(username string, balance decimal.Decimal)
}

// PaymentRecorder converts a confirmed on-chain deposit into a ledger credit,
// exactly once per transaction hash.
type PaymentRecorder interface {
	RecordPayment(ctx context.Context, senderAddress, recipientIdentifier string, amount decimal.Decimal, txHash string) (*domain.Payment, error)
}

type paymentRecorder struct {
	dbBeginner  db.DBTxBeginner
	dbExecutor  repository.DBExecutor
	resolver    AliasResolver
	balanceRepo repository.BalanceRepository
	paymentRepo repository.PaymentRepository
	beginTx     db.BeginTxFunc
	commitTx    db.CommitTxFunc
	rollbackTx  db.RollbackTxFunc
	notifier    BalanceNotifier
	logger      *slog.Logger
}

// NewPaymentRecorder creates a new PaymentRecorder.
func NewPaymentRecorder(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	resolver AliasResolver,
	balanceRepo repository.BalanceRepository,
	paymentRepo repository.PaymentRepository,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	notifier BalanceNotifier,
	logger *slog.Logger,
) PaymentRecorder {
	return &paymentRecorder{
		dbBeginner:  dbBeginner,
		dbExecutor:  dbExecutor,
		resolver:    resolver,
		balanceRepo: balanceRepo,
		paymentRepo: paymentRepo,
		beginTx:     beginTx,
		commitTx:    commitTx,
		rollbackTx:  rollbackTx,
		notifier:    notifier,
		logger:      logger,
	}
}

// RecordPayment credits the resolved recipient and appends the journal entry
// in one database transaction. A replayed tx hash is a successful no-op: the
// partial unique index rejects the insert and the existing entry is returned
// without touching the balance.
func (s *paymentRecorder) RecordPayment(ctx context.Context, senderAddress, recipientIdentifier string, amount decimal.Decimal, txHash string) (*domain.Payment, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be positive: %w", util.ErrInvalidInput)
	}
	if strings.TrimSpace(txHash) == "" {
		return nil, fmt.Errorf("tx hash required: %w", util.ErrInvalidInput)
	}
	if strings.TrimSpace(recipientIdentifier) == "" {
		return nil, fmt.Errorf("recipient identifier required: %w", util.ErrInvalidInput)
	}

	res, err := s.resolver.Resolve(ctx, recipientIdentifier)
	if err != nil {
		if !errors.Is(err, util.ErrRecipientNotFound) {
			return nil, err
		}
		// Implicit user: the raw identifier becomes the recipient username.
		handle := domain.NormalizeHandle(recipientIdentifier)
		if handle == "" {
			return nil, err
		}
		res = &Resolution{WalletAddress: handle, Username: handle}
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("record payment: failed to begin transaction: %w", util.ErrLedgerUnavailable)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("record payment: transaction controller does not implement DBExecutor")
	}

	payment := domain.NewPayment(strings.TrimSpace(senderAddress), res.Username, amount, txHash)
	if err := s.paymentRepo.CreatePayment(ctx, txExecutor, payment); err != nil {
		if errors.Is(err, util.ErrDuplicateEntry) {
			s.rollbackTx(txController)
			existing, lookupErr := s.paymentRepo.GetPaymentByTxHash(ctx, s.dbExecutor, txHash)
			if lookupErr != nil {
				return nil, fmt.Errorf("record payment: duplicate tx '%s' lookup: %w", txHash, util.ErrLedgerUnavailable)
			}
			s.logger.Info("Duplicate payment notification ignored", "tx_hash", txHash)
			return existing, nil
		}
		return nil, fmt.Errorf("record payment: failed to append entry: %w", err)
	}

	balance, err := s.balanceRepo.AdjustBalance(ctx, txExecutor, res.Username, amount, res.WalletAddress)
	if err != nil {
		return nil, fmt.Errorf("record payment: failed to credit '%s': %w", res.Username, err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("record payment: failed to commit transaction: %w", util.ErrLedgerUnavailable)
	}

	s.notifier.NotifyBalanceChanged(res.Username, balance.AvailableBalance)
	return payment, nil
}
