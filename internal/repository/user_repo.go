// internal/repository/user_repo.go
package repository

import (
	"context"

	"privatepay-relay/internal/domain"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	// CreateUser adds a new user using the provided DBExecutor.
	CreateUser(ctx context.Context, q DBExecutor, user *domain.User) error
	// GetUserByWallet retrieves a user by wallet address.
	GetUserByWallet(ctx context.Context, q DBExecutor, walletAddress string) (*domain.User, error)
	// GetUserByUsername retrieves a user by their username.
	GetUserByUsername(ctx context.Context, q DBExecutor, username string) (*domain.User, error)
	// UpdateUsername changes the username for a wallet.
	UpdateUsername(ctx context.Context, q DBExecutor, walletAddress, username string) (*domain.User, error)
}
