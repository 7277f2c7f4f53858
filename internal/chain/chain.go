// internal/chain/chain.go

// Package chain provides the treasury's on-chain capability: sending native
// token transfers from the treasury address and confirming their finality.
// The ledger never touches keys or RPC directly; it consumes this interface.
package chain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Client is the chain capability consumed by the withdrawal relay.
type Client interface {
	// SendTransfer submits a native-token transfer of amount from the
	// treasury to the destination address and returns the transaction hash.
	// Submission of concurrent transfers is serialized internally; the
	// treasury nonce is a shared resource.
	SendTransfer(ctx context.Context, toAddress string, amount decimal.Decimal) (string, error)
	// WaitForConfirmation blocks until the transaction is final. It returns
	// nil on success, util.ErrChainTransferFailed if the transaction
	// reverted, and util.ErrTransferStatusUnknown when the bounded wait
	// expired without a definite answer. Unknown is never success.
	WaitForConfirmation(ctx context.Context, txHash string) error
	// TreasuryBalance returns the treasury's current on-chain balance in
	// whole native tokens.
	TreasuryBalance(ctx context.Context) (decimal.Decimal, error)
	// TreasuryAddress returns the shared treasury address.
	TreasuryAddress() string
}

// IsValidAddress reports whether s is a well-formed chain address.
func IsValidAddress(s string) bool {
	return common.IsHexAddress(s)
}
