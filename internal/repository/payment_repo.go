// internal/repository/payment_repo.go
package repository

import (
	"context"

	"privatepay-relay/internal/domain"

	"github.com/shopspring/decimal"
)

// PaymentRepository defines the interface for the append-only payment journal.
type PaymentRepository interface {
	// CreatePayment inserts one immutable ledger entry. Returns
	// util.ErrDuplicateEntry when a completed entry with the same tx hash
	// already exists (partial unique index); rows are never updated after.
	CreatePayment(ctx context.Context, q DBExecutor, payment *domain.Payment) error
	// GetPaymentByTxHash retrieves the completed entry for a tx hash.
	GetPaymentByTxHash(ctx context.Context, q DBExecutor, txHash string) (*domain.Payment, error)
	// GetPaymentsReceived lists entries addressed to any of the given
	// recipient handles, newest first.
	GetPaymentsReceived(ctx context.Context, q DBExecutor, recipients []string, limit, offset int) ([]domain.Payment, error)
	// GetPaymentsSent lists entries sent from the given wallet address,
	// newest first.
	GetPaymentsSent(ctx context.Context, q DBExecutor, senderAddress string, limit, offset int) ([]domain.Payment, error)
	// SumAmounts returns the total of all entry amounts, optionally scoped to
	// one recipient username (empty string means all). Used for
	// reconciliation against balances.
	SumAmounts(ctx context.Context, q DBExecutor, username string) (decimal.Decimal, error)
}
