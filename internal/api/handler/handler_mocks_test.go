// internal/api/handler/handler_mocks_test.go
package handler

import (
	"context"
	"io"
	"log/slog"

	"privatepay-relay/internal/domain"
	"privatepay-relay/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockWithdrawalRelay is a mock implementation of service.WithdrawalRelay.
type MockWithdrawalRelay struct {
	mock.Mock
}

func (m *MockWithdrawalRelay) Withdraw(ctx context.Context, username string, amount decimal.Decimal, destination string) (*service.WithdrawalResult, error) {
	args := m.Called(ctx, username, amount, destination)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WithdrawalResult), args.Error(1)
}

// MockPaymentRecorder is a mock implementation of service.PaymentRecorder.
type MockPaymentRecorder struct {
	mock.Mock
}

func (m *MockPaymentRecorder) RecordPayment(ctx context.Context, senderAddress, recipientIdentifier string, amount decimal.Decimal, txHash string) (*domain.Payment, error) {
	args := m.Called(ctx, senderAddress, recipientIdentifier, amount, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

// MockLedgerService is a mock implementation of service.LedgerService.
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetOrCreateUser(ctx context.Context, walletAddress, desiredUsername string) (*domain.User, error) {
	args := m.Called(ctx, walletAddress, desiredUsername)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockLedgerService) GetBalance(ctx context.Context, username string) (*domain.Balance, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Balance), args.Error(1)
}

func (m *MockLedgerService) UpdateUsername(ctx context.Context, walletAddress, newUsername string) (*domain.User, error) {
	args := m.Called(ctx, walletAddress, newUsername)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockLedgerService) IsAliasAvailable(ctx context.Context, candidate string) (bool, error) {
	args := m.Called(ctx, candidate)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerService) CreatePaymentLink(ctx context.Context, walletAddress, username, alias string) (*domain.PaymentLink, error) {
	args := m.Called(ctx, walletAddress, username, alias)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentLink), args.Error(1)
}

func (m *MockLedgerService) GetPaymentLinks(ctx context.Context, walletAddress string) ([]domain.PaymentLink, error) {
	args := m.Called(ctx, walletAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PaymentLink), args.Error(1)
}

func (m *MockLedgerService) GetPaymentLinkByAlias(ctx context.Context, alias string) (*domain.PaymentLink, error) {
	args := m.Called(ctx, alias)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentLink), args.Error(1)
}

func (m *MockLedgerService) DeletePaymentLink(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLedgerService) GetPaymentHistory(ctx context.Context, username string, limit, offset int) ([]domain.Payment, error) {
	args := m.Called(ctx, username, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

// MockChainClient is a mock implementation of chain.Client.
type MockChainClient struct {
	mock.Mock
}

func (m *MockChainClient) SendTransfer(ctx context.Context, toAddress string, amount decimal.Decimal) (string, error) {
	args := m.Called(ctx, toAddress, amount)
	return args.String(0), args.Error(1)
}

func (m *MockChainClient) WaitForConfirmation(ctx context.Context, txHash string) error {
	args := m.Called(ctx, txHash)
	return args.Error(0)
}

func (m *MockChainClient) TreasuryBalance(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockChainClient) TreasuryAddress() string {
	args := m.Called()
	return args.String(0)
}
