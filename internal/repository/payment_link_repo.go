// internal/repository/payment_link_repo.go
package repository

import (
	"context"

	"privatepay-relay/internal/domain"
)

// PaymentLinkRepository defines the interface for payment link (alias) data operations.
type PaymentLinkRepository interface {
	// CreateLink inserts a new payment link. Returns util.ErrDuplicateEntry
	// when the alias is already taken.
	CreateLink(ctx context.Context, q DBExecutor, link *domain.PaymentLink) error
	// GetLinkByAlias retrieves the link for an alias.
	GetLinkByAlias(ctx context.Context, q DBExecutor, alias string) (*domain.PaymentLink, error)
	// GetLinksByWallet lists links owned by a wallet, newest first.
	GetLinksByWallet(ctx context.Context, q DBExecutor, walletAddress string) ([]domain.PaymentLink, error)
	// DeleteLink removes a link by id.
	DeleteLink(ctx context.Context, q DBExecutor, id string) error
}
