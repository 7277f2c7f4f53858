// internal/repository/balance_repo.go
package repository

import (
	"context"

	"privatepay-relay/internal/domain"

	"github.com/shopspring/decimal"
)

// BalanceRepository defines the interface for balance data operations.
type BalanceRepository interface {
	// CreateBalance inserts a zero-balance row for a username.
	CreateBalance(ctx context.Context, q DBExecutor, balance *domain.Balance) error
	// GetBalance retrieves the balance row for a username.
	// Returns util.ErrNotFound when no row exists; presenting absence as a
	// zero balance is the caller's concern.
	GetBalance(ctx context.Context, q DBExecutor, username string) (*domain.Balance, error)
	// GetBalanceByWallet retrieves the balance row for a wallet address.
	GetBalanceByWallet(ctx context.Context, q DBExecutor, walletAddress string) (*domain.Balance, error)
	// AdjustBalance atomically applies delta to the username's balance and
	// returns the updated row. A missing row is created (zero start, using
	// walletFallback) when delta is non-negative. Fails with
	// util.ErrInsufficientBalance if the result would go below zero; the
	// guard is evaluated inside a single conditional statement so concurrent
	// deltas for the same username serialize at the row.
	AdjustBalance(ctx context.Context, q DBExecutor, username string, delta decimal.Decimal, walletFallback string) (*domain.Balance, error)
}
