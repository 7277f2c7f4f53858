// internal/service/resolver.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"privatepay-relay/internal/chain"
	"privatepay-relay/internal/domain"
	"privatepay-relay/internal/repository"
	"privatepay-relay/internal/util"
)

// Resolution is the canonical identity a user-supplied string resolves to.
type Resolution struct {
	WalletAddress string
	Username      string
}

// AliasResolver turns a user-supplied string (alias, username, or raw
// address) into a canonical wallet/username pair. Resolution is read-only:
// it never creates records; implicit-user creation is the caller's decision.
type AliasResolver interface {
	Resolve(ctx context.Context, identifier string) (*Resolution, error)
}

type aliasResolver struct {
	dbExecutor repository.DBExecutor
	userRepo   repository.UserRepository
	linkRepo   repository.PaymentLinkRepository
}

// NewAliasResolver creates a new AliasResolver.
func NewAliasResolver(
	dbExecutor repository.DBExecutor,
	userRepo repository.UserRepository,
	linkRepo repository.PaymentLinkRepository,
) AliasResolver {
	return &aliasResolver{
		dbExecutor: dbExecutor,
		userRepo:   userRepo,
		linkRepo:   linkRepo,
	}
}

// Resolve applies the precedence order: payment link alias, then username,
// then address-shaped input. The alias table wins over the username table
// when both match.
func (r *aliasResolver) Resolve(ctx context.Context, identifier string) (*Resolution, error) {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return nil, fmt.Errorf("empty recipient identifier: %w", util.ErrInvalidInput)
	}

	if handle := domain.NormalizeHandle(id); handle != "" {
		link, err := r.linkRepo.GetLinkByAlias(ctx, r.dbExecutor, handle)
		if err == nil {
			return &Resolution{WalletAddress: link.WalletAddress, Username: link.Username}, nil
		}
		if !errors.Is(err, util.ErrNotFound) {
			return nil, fmt.Errorf("resolve alias '%s': %w", handle, util.ErrLedgerUnavailable)
		}

		user, err := r.userRepo.GetUserByUsername(ctx, r.dbExecutor, handle)
		if err == nil {
			return &Resolution{WalletAddress: user.WalletAddress, Username: user.Username}, nil
		}
		if !errors.Is(err, util.ErrNotFound) {
			return nil, fmt.Errorf("resolve username '%s': %w", handle, util.ErrLedgerUnavailable)
		}
	}

	if chain.IsValidAddress(id) {
		user, err := r.userRepo.GetUserByWallet(ctx, r.dbExecutor, id)
		if err == nil {
			return &Resolution{WalletAddress: user.WalletAddress, Username: user.Username}, nil
		}
		if !errors.Is(err, util.ErrNotFound) {
			return nil, fmt.Errorf("resolve wallet '%s': %w", id, util.ErrLedgerUnavailable)
		}
		// Unregistered wallet: derive a placeholder identity, do not create it.
		return &Resolution{WalletAddress: id, Username: domain.PlaceholderUsername(id)}, nil
	}

	return nil, fmt.Errorf("identifier '%s': %w", id, util.ErrRecipientNotFound)
}
