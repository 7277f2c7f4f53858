// internal/repository/postgres/payment_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"privatepay-relay/internal/domain"
	"privatepay-relay/internal/repository"
	"privatepay-relay/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// PaymentRepository implements repository.PaymentRepository for PostgreSQL.
type PaymentRepository struct {
	// Methods receive a DBExecutor directly; no connection is stored.
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) repository.PaymentRepository {
	return &PaymentRepository{}
}

const paymentColumns = `id, sender_address, recipient_username, amount, tx_hash, status, created_at`

// CreatePayment inserts one ledger entry using the provided DBExecutor.
// The payments_completed_tx_hash partial unique index rejects a second
// completed entry for the same tx hash; that surfaces as ErrDuplicateEntry.
func (r *PaymentRepository) CreatePayment(ctx context.Context, q repository.DBExecutor, payment *domain.Payment) error {
	query := `INSERT INTO payments (id, sender_address, recipient_username, amount, tx_hash, status, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := q.ExecContext(ctx, query,
		payment.ID,
		payment.SenderAddress,
		payment.RecipientUsername,
		payment.Amount,
		payment.TxHash,
		payment.Status,
		payment.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("payment for tx '%s': %w", payment.TxHash, util.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetPaymentByTxHash retrieves the completed entry for a tx hash.
func (r *PaymentRepository) GetPaymentByTxHash(ctx context.Context, q repository.DBExecutor, txHash string) (*domain.Payment, error) {
	var payment domain.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE tx_hash = $1 AND status = $2`
	err := q.GetContext(ctx, &payment, query, txHash, domain.PaymentStatusCompleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment by tx hash '%s': %w", txHash, err)
	}
	return &payment, nil
}

// GetPaymentsReceived lists entries addressed to any of the given handles, newest first.
func (r *PaymentRepository) GetPaymentsReceived(ctx context.Context, q repository.DBExecutor, recipients []string, limit, offset int) ([]domain.Payment, error) {
	payments := []domain.Payment{}
	if len(recipients) == 0 {
		return payments, nil
	}
	query, args, err := sqlx.In(
		`SELECT `+paymentColumns+` FROM payments WHERE recipient_username IN (?) ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		recipients, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build received payments query: %w", err)
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)
	if err := q.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch received payments: %w", err)
	}
	return payments, nil
}

// GetPaymentsSent lists entries sent from the given wallet address, newest first.
func (r *PaymentRepository) GetPaymentsSent(ctx context.Context, q repository.DBExecutor, senderAddress string, limit, offset int) ([]domain.Payment, error) {
	payments := []domain.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments
              WHERE sender_address = $1
              ORDER BY created_at DESC
              LIMIT $2 OFFSET $3`
	if err := q.SelectContext(ctx, &payments, query, senderAddress, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to fetch sent payments for '%s': %w", senderAddress, err)
	}
	return payments, nil
}

// SumAmounts totals entry amounts, optionally scoped to one recipient username.
func (r *PaymentRepository) SumAmounts(ctx context.Context, q repository.DBExecutor, username string) (decimal.Decimal, error) {
	var total decimal.Decimal
	var err error
	if username == "" {
		err = q.GetContext(ctx, &total, `SELECT COALESCE(SUM(amount), 0) FROM payments`)
	} else {
		err = q.GetContext(ctx, &total, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE recipient_username = $1`, username)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum payment amounts: %w", err)
	}
	return total, nil
}
