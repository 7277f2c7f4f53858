// internal/service/ledger_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"privatepay-relay/internal/domain"
	"privatepay-relay/internal/repository"
	"privatepay-relay/internal/util"
	"privatepay-relay/pkg/db"
)

// LedgerService covers the non-transfer ledger operations: user registration,
// balance reads, username changes, payment links, and payment history.
type LedgerService interface {
	// GetOrCreateUser is idempotent: an existing wallet gets its user back
	// (with the username updated if changed and free); a new wallet gets a
	// user plus a zero balance.
	GetOrCreateUser(ctx context.Context, walletAddress, desiredUsername string) (*domain.User, error)
	// GetBalance never returns nil: absent rows present as a zero balance.
	GetBalance(ctx context.Context, username string) (*domain.Balance, error)
	// UpdateUsername normalizes, checks availability, updates the user, and
	// creates a matching payment link (best effort).
	UpdateUsername(ctx context.Context, walletAddress, newUsername string) (*domain.User, error)
	// IsAliasAvailable reports whether a candidate collides with an existing
	// alias or username, after normalization.
	IsAliasAvailable(ctx context.Context, candidate string) (bool, error)
	CreatePaymentLink(ctx context.Context, walletAddress, username, alias string) (*domain.PaymentLink, error)
	GetPaymentLinks(ctx context.Context, walletAddress string) ([]domain.PaymentLink, error)
	GetPaymentLinkByAlias(ctx context.Context, alias string) (*domain.PaymentLink, error)
	DeletePaymentLink(ctx context.Context, id string) error
	// GetPaymentHistory merges payments received under any of the viewer's
	// handles with payments sent from the viewer's wallet, newest first.
	// IsSent is set relative to the viewer.
	GetPaymentHistory(ctx context.Context, username string, limit, offset int) ([]domain.Payment, error)
}

type ledgerService struct {
	dbBeginner  db.DBTxBeginner
	dbExecutor  repository.DBExecutor
	userRepo    repository.UserRepository
	balanceRepo repository.BalanceRepository
	paymentRepo repository.PaymentRepository
	linkRepo    repository.PaymentLinkRepository
	beginTx     db.BeginTxFunc
	commitTx    db.CommitTxFunc
	rollbackTx  db.RollbackTxFunc
	logger      *slog.Logger
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	userRepo repository.UserRepository,
	balanceRepo repository.BalanceRepository,
	paymentRepo repository.PaymentRepository,
	linkRepo repository.PaymentLinkRepository,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	logger *slog.Logger,
) LedgerService {
	return &ledgerService{
		dbBeginner:  dbBeginner,
		dbExecutor:  dbExecutor,
		userRepo:    userRepo,
		balanceRepo: balanceRepo,
		paymentRepo: paymentRepo,
		linkRepo:    linkRepo,
		beginTx:     beginTx,
		commitTx:    commitTx,
		rollbackTx:  rollbackTx,
		logger:      logger,
	}
}

func (s *ledgerService) GetOrCreateUser(ctx context.Context, walletAddress, desiredUsername string) (*domain.User, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if walletAddress == "" {
		return nil, fmt.Errorf("wallet address required: %w", util.ErrInvalidInput)
	}
	username := domain.NormalizeHandle(desiredUsername)
	if username == "" {
		username = domain.PlaceholderUsername(walletAddress)
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("get or create user: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("get or create user: transaction controller does not implement DBExecutor")
	}

	existing, err := s.userRepo.GetUserByWallet(ctx, txExecutor, walletAddress)
	if err == nil {
		if existing.Username == username {
			return existing, nil
		}
		available, err := s.aliasAvailable(ctx, txExecutor, username)
		if err != nil {
			return nil, err
		}
		if !available {
			return nil, fmt.Errorf("username '%s': %w", username, util.ErrUsernameTaken)
		}
		updated, err := s.userRepo.UpdateUsername(ctx, txExecutor, walletAddress, username)
		if err != nil {
			if errors.Is(err, util.ErrDuplicateEntry) {
				return nil, fmt.Errorf("username '%s': %w", username, util.ErrUsernameTaken)
			}
			return nil, fmt.Errorf("get or create user: failed to update username: %w", err)
		}
		if err := s.commitTx(txController); err != nil {
			return nil, fmt.Errorf("get or create user: failed to commit transaction: %w", err)
		}
		return updated, nil
	}
	if !errors.Is(err, util.ErrNotFound) {
		return nil, fmt.Errorf("get or create user: failed to check existing user: %w", err)
	}

	available, err := s.aliasAvailable(ctx, txExecutor, username)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, fmt.Errorf("username '%s': %w", username, util.ErrUsernameTaken)
	}

	user := domain.NewUser(walletAddress, username)
	if err := s.userRepo.CreateUser(ctx, txExecutor, user); err != nil {
		if errors.Is(err, util.ErrDuplicateEntry) {
			return nil, fmt.Errorf("username '%s': %w", username, util.ErrUsernameTaken)
		}
		return nil, fmt.Errorf("get or create user: failed to create user: %w", err)
	}

	balance := domain.NewBalance(username, walletAddress)
	if err := s.balanceRepo.CreateBalance(ctx, txExecutor, balance); err != nil && !errors.Is(err, util.ErrDuplicateEntry) {
		return nil, fmt.Errorf("get or create user: failed to create balance: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("get or create user: failed to commit transaction: %w", err)
	}
	return user, nil
}

// GetBalance presents absence as zero at the boundary; internally the
// repository keeps "no row yet" distinct.
func (s *ledgerService) GetBalance(ctx context.Context, username string) (*domain.Balance, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username required: %w", util.ErrInvalidInput)
	}
	balance, err := s.balanceRepo.GetBalance(ctx, s.dbExecutor, username)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return domain.ZeroBalance(username), nil
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

func (s *ledgerService) UpdateUsername(ctx context.Context, walletAddress, newUsername string) (*domain.User, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	username := domain.NormalizeHandle(newUsername)
	if walletAddress == "" || username == "" {
		return nil, fmt.Errorf("wallet address and username required: %w", util.ErrInvalidInput)
	}

	available, err := s.IsAliasAvailable(ctx, username)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, fmt.Errorf("username '%s': %w", username, util.ErrUsernameTaken)
	}

	user, err := s.userRepo.UpdateUsername(ctx, s.dbExecutor, walletAddress, username)
	if err != nil {
		if errors.Is(err, util.ErrDuplicateEntry) {
			return nil, fmt.Errorf("username '%s': %w", username, util.ErrUsernameTaken)
		}
		return nil, fmt.Errorf("update username: %w", err)
	}

	// A link pointing the new name at the wallet keeps old payment URLs
	// resolving. Losing it is not fatal.
	link := domain.NewPaymentLink(walletAddress, username, username)
	if err := s.linkRepo.CreateLink(ctx, s.dbExecutor, link); err != nil && !errors.Is(err, util.ErrDuplicateEntry) {
		s.logger.Warn("Could not create payment link for new username", "username", username, "error", err)
	}
	return user, nil
}

func (s *ledgerService) IsAliasAvailable(ctx context.Context, candidate string) (bool, error) {
	handle := domain.NormalizeHandle(candidate)
	if handle == "" {
		return false, nil
	}
	return s.aliasAvailable(ctx, s.dbExecutor, handle)
}

func (s *ledgerService) aliasAvailable(ctx context.Context, q repository.DBExecutor, handle string) (bool, error) {
	if _, err := s.linkRepo.GetLinkByAlias(ctx, q, handle); err == nil {
		return false, nil
	} else if !errors.Is(err, util.ErrNotFound) {
		return false, fmt.Errorf("alias availability: %w", err)
	}
	if _, err := s.userRepo.GetUserByUsername(ctx, q, handle); err == nil {
		return false, nil
	} else if !errors.Is(err, util.ErrNotFound) {
		return false, fmt.Errorf("alias availability: %w", err)
	}
	return true, nil
}

func (s *ledgerService) CreatePaymentLink(ctx context.Context, walletAddress, username, alias string) (*domain.PaymentLink, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	normalizedAlias := domain.NormalizeHandle(alias)
	if walletAddress == "" || normalizedAlias == "" {
		return nil, fmt.Errorf("wallet address and alias required: %w", util.ErrInvalidInput)
	}

	available, err := s.IsAliasAvailable(ctx, normalizedAlias)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, fmt.Errorf("alias '%s': %w", normalizedAlias, util.ErrAliasTaken)
	}

	linkUsername := domain.NormalizeHandle(username)
	if linkUsername == "" {
		if user, err := s.userRepo.GetUserByWallet(ctx, s.dbExecutor, walletAddress); err == nil {
			linkUsername = user.Username
		} else {
			linkUsername = domain.PlaceholderUsername(walletAddress)
		}
	}

	link := domain.NewPaymentLink(walletAddress, linkUsername, normalizedAlias)
	if err := s.linkRepo.CreateLink(ctx, s.dbExecutor, link); err != nil {
		if errors.Is(err, util.ErrDuplicateEntry) {
			return nil, fmt.Errorf("alias '%s': %w", normalizedAlias, util.ErrAliasTaken)
		}
		return nil, fmt.Errorf("create payment link: %w", err)
	}
	return link, nil
}

func (s *ledgerService) GetPaymentLinks(ctx context.Context, walletAddress string) ([]domain.PaymentLink, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if walletAddress == "" {
		return nil, fmt.Errorf("wallet address required: %w", util.ErrInvalidInput)
	}
	links, err := s.linkRepo.GetLinksByWallet(ctx, s.dbExecutor, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("get payment links: %w", err)
	}
	return links, nil
}

func (s *ledgerService) GetPaymentLinkByAlias(ctx context.Context, alias string) (*domain.PaymentLink, error) {
	handle := domain.NormalizeHandle(alias)
	if handle == "" {
		return nil, fmt.Errorf("alias required: %w", util.ErrInvalidInput)
	}
	link, err := s.linkRepo.GetLinkByAlias(ctx, s.dbExecutor, handle)
	if err != nil {
		return nil, fmt.Errorf("get payment link '%s': %w", handle, err)
	}
	return link, nil
}

func (s *ledgerService) DeletePaymentLink(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("link id required: %w", util.ErrInvalidInput)
	}
	if err := s.linkRepo.DeleteLink(ctx, s.dbExecutor, id); err != nil {
		return fmt.Errorf("delete payment link '%s': %w", id, err)
	}
	return nil
}

func (s *ledgerService) GetPaymentHistory(ctx context.Context, username string, limit, offset int) ([]domain.Payment, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username required: %w", util.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	// Collect every handle the viewer can receive under.
	handles := []string{username}
	var walletAddress string
	user, err := s.userRepo.GetUserByUsername(ctx, s.dbExecutor, username)
	if err == nil {
		walletAddress = user.WalletAddress
	} else if !errors.Is(err, util.ErrNotFound) {
		return nil, fmt.Errorf("payment history: %w", err)
	}
	if walletAddress != "" {
		links, err := s.linkRepo.GetLinksByWallet(ctx, s.dbExecutor, walletAddress)
		if err != nil {
			return nil, fmt.Errorf("payment history: %w", err)
		}
		for _, l := range links {
			handles = append(handles, l.Alias, l.Username)
		}
	}
	handles = dedupe(handles)

	received, err := s.paymentRepo.GetPaymentsReceived(ctx, s.dbExecutor, handles, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("payment history: %w", err)
	}

	merged := received
	if walletAddress != "" {
		sent, err := s.paymentRepo.GetPaymentsSent(ctx, s.dbExecutor, walletAddress, limit, offset)
		if err != nil {
			return nil, fmt.Errorf("payment history: %w", err)
		}
		for i := range sent {
			sent[i].IsSent = true
		}
		merged = append(merged, sent...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
