// internal/repository/postgres/user_pg.go
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
)

// UserRepository implements repository.UserRepository for PostgreSQL.
type UserRepository struct {
	// Methods receive a DBExecutor directly; no connection is stored.
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &UserRepository{}
}

// CreateUser inserts a new user using the provided DBExecutor.
func (r *UserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	query := `INSERT INTO users (wallet_address, username, created_at, updated_at)
              VALUES ($1, $2, $3, $4) RETURNING id`
	err := q.QueryRowContext(ctx, query, user.WalletAddress, user.Username, user.CreatedAt, user.UpdatedAt).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user '%s': %w", user.Username, util.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByWallet retrieves a user by wallet address using the provided DBExecutor.
func (r *UserRepository) GetUserByWallet(ctx context.Context, q repository.DBExecutor, walletAddress string) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, wallet_address, username, created_at, updated_at FROM users WHERE wallet_address = $1`
	err := q.GetContext(ctx, &user, query, walletAddress)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by wallet '%s': %w", walletAddress, err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by their username using the provided DBExecutor.
func (r *UserRepository) GetUserByUsername(ctx context.Context, q repository.DBExecutor, username string) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, wallet_address, username, created_at, updated_at FROM users WHERE username = $1`
	err := q.GetContext(ctx, &user, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username '%s': %w", username, err)
	}
	return &user, nil
}

// UpdateUsername changes the username for a wallet using the provided DBExecutor.
func (r *UserRepository) UpdateUsername(ctx context.Context, q repository.DBExecutor, walletAddress, username string) (*domain.User, error) {
	var user domain.User
	query := `UPDATE users SET username = $1, updated_at = $2 WHERE wallet_address = $3
              RETURNING id, wallet_address, username, created_at, updated_at`
	err := q.GetContext(ctx, &user, query, username, time.Now().UTC(), walletAddress)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("update username to '%s': %w", username, util.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("failed to update username for wallet '%s': %w", walletAddress, err)
	}
	return &user, nil
}
