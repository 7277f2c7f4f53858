// internal/repository/postgres/payment_link_pg.go
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
)

// PaymentLinkRepository implements repository.PaymentLinkRepository for PostgreSQL.
type PaymentLinkRepository struct {
	// Methods receive a DBExecutor directly; no connection is stored.
}

// NewPaymentLinkRepository creates a new PaymentLinkRepository.
func NewPaymentLinkRepository(db *sqlx.DB) repository.PaymentLinkRepository {
	return &PaymentLinkRepository{}
}

const linkColumns = `id, wallet_address, username, alias, created_at`

// CreateLink inserts a new payment link using the provided DBExecutor.
func (r *PaymentLinkRepository) CreateLink(ctx context.Context, q repository.DBExecutor, link *domain.PaymentLink) error {
	query := `INSERT INTO payment_links (id, wallet_address, username, alias, created_at)
              VALUES ($1, $2, $3, $4, $5)`
	_, err := q.ExecContext(ctx, query, link.ID, link.WalletAddress, link.Username, link.Alias, link.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("payment link alias '%s': %w", link.Alias, util.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create payment link: %w", err)
	}
	return nil
}

// GetLinkByAlias retrieves the link for an alias using the provided DBExecutor.
func (r *PaymentLinkRepository) GetLinkByAlias(ctx context.Context, q repository.DBExecutor, alias string) (*domain.PaymentLink, error) {
	var link domain.PaymentLink
	query := `SELECT ` + linkColumns + ` FROM payment_links WHERE alias = $1`
	err := q.GetContext(ctx, &link, query, alias)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment link by alias '%s': %w", alias, err)
	}
	return &link, nil
}

// GetLinksByWallet lists links owned by a wallet, newest first.
func (r *PaymentLinkRepository) GetLinksByWallet(ctx context.Context, q repository.DBExecutor, walletAddress string) ([]domain.PaymentLink, error) {
	links := []domain.PaymentLink{}
	query := `SELECT ` + linkColumns + ` FROM payment_links WHERE wallet_address = $1 ORDER BY created_at DESC`
	if err := q.SelectContext(ctx, &links, query, walletAddress); err != nil {
		return nil, fmt.Errorf("failed to fetch payment links for wallet '%s': %w", walletAddress, err)
	}
	return links, nil
}

// DeleteLink removes a link by id using the provided DBExecutor.
func (r *PaymentLinkRepository) DeleteLink(ctx context.Context, q repository.DBExecutor, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM payment_links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment link '%s': %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected deleting payment link '%s': %w", id, err)
	}
	if rowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}
