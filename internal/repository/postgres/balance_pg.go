// internal/repository/postgres/balance_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"privatepay-relay/internal/domain"
	"privatepay-relay/internal/repository"
	"privatepay-relay/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// BalanceRepository implements repository.BalanceRepository for PostgreSQL.
type BalanceRepository struct {
	// Methods receive a DBExecutor directly; no connection is stored.
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(db *sqlx.DB) repository.BalanceRepository {
	return &BalanceRepository{}
}

const balanceColumns = `id, username, wallet_address, available_balance, created_at, updated_at`

// CreateBalance inserts a zero-balance row using the provided DBExecutor.
func (r *BalanceRepository) CreateBalance(ctx context.Context, q repository.DBExecutor, balance *domain.Balance) error {
	query := `INSERT INTO balances (username, wallet_address, available_balance, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := q.QueryRowContext(ctx, query, balance.Username, balance.WalletAddress, balance.AvailableBalance, balance.CreatedAt, balance.UpdatedAt).Scan(&balance.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create balance for '%s': %w", balance.Username, util.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create balance: %w", err)
	}
	return nil
}

// GetBalance retrieves the balance row for a username using the provided DBExecutor.
func (r *BalanceRepository) GetBalance(ctx context.Context, q repository.DBExecutor, username string) (*domain.Balance, error) {
	var balance domain.Balance
	query := `SELECT ` + balanceColumns + ` FROM balances WHERE username = $1`
	err := q.GetContext(ctx, &balance, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get balance for '%s': %w", username, err)
	}
	return &balance, nil
}

// GetBalanceByWallet retrieves the balance row for a wallet address using the provided DBExecutor.
func (r *BalanceRepository) GetBalanceByWallet(ctx context.Context, q repository.DBExecutor, walletAddress string) (*domain.Balance, error) {
	var balance domain.Balance
	query := `SELECT ` + balanceColumns + ` FROM balances WHERE wallet_address = $1`
	err := q.GetContext(ctx, &balance, query, walletAddress)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get balance for wallet '%s': %w", walletAddress, err)
	}
	return &balance, nil
}

// AdjustBalance atomically applies delta to the username's balance.
//
// The non-negativity guard lives in the UPDATE's WHERE clause, so the check
// and the write are one statement and concurrent deltas for the same username
// serialize on the row lock. Zero rows updated means either the row does not
// exist (create it for non-negative deltas) or the delta would overdraw.
func (r *BalanceRepository) AdjustBalance(ctx context.Context, q repository.DBExecutor, username string, delta decimal.Decimal, walletFallback string) (*domain.Balance, error) {
	var balance domain.Balance
	update := `UPDATE balances
               SET available_balance = available_balance + $1, updated_at = $2
               WHERE username = $3 AND available_balance + $1 >= 0
               RETURNING ` + balanceColumns
	err := q.GetContext(ctx, &balance, update, delta, time.Now().UTC(), username)
	if err == nil {
		return &balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to adjust balance for '%s': %w", username, err)
	}

	if delta.IsNegative() {
		// Either no row or the guard rejected the debit; both are the same
		// answer for a negative delta.
		return nil, util.ErrInsufficientBalance
	}

	// Lazily create the row. ON CONFLICT folds the racing-create case back
	// into an increment; delta is non-negative here so the guard cannot fire.
	now := time.Now().UTC()
	insert := `INSERT INTO balances (username, wallet_address, available_balance, created_at, updated_at)
               VALUES ($1, $2, $3, $4, $4)
               ON CONFLICT (username) DO UPDATE
               SET available_balance = balances.available_balance + EXCLUDED.available_balance, updated_at = $4
               RETURNING ` + balanceColumns
	err = q.GetContext(ctx, &balance, insert, username, walletFallback, delta, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create balance for '%s': %w", username, err)
	}
	return &balance, nil
}
