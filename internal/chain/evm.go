// internal/chain/evm.go
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"privatepay-relay/internal/util"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

// Native token uses 18 decimals; a plain value transfer costs 21000 gas.
const (
	nativeDecimals = 18
	transferGas    = 21000
)

// Config holds EVM client configuration.
type Config struct {
	RPCURL             string
	ChainID            int64
	TreasuryPrivateKey string
	ConfirmTimeout     time.Duration
	PollInterval       time.Duration
}

// EVMClient implements Client against an EVM chain via go-ethereum.
type EVMClient struct {
	eth            *ethclient.Client
	chainID        *big.Int
	key            *ecdsa.PrivateKey
	treasury       common.Address
	confirmTimeout time.Duration
	pollInterval   time.Duration

	// Guards the nonce-fetch/sign/submit sequence. The treasury nonce is
	// shared by every withdrawal; unserialized submits produce conflicting
	// transactions.
	signerMu sync.Mutex
}

// NewEVMClient connects to the RPC endpoint and derives the treasury address
// from the configured private key.
func NewEVMClient(cfg Config) (*EVMClient, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("chain RPC URL required")
	}
	if cfg.TreasuryPrivateKey == "" {
		return nil, util.ErrNotConfigured
	}

	eth, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain RPC: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.TreasuryPrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid treasury private key: %w", err)
	}

	confirmTimeout := cfg.ConfirmTimeout
	if confirmTimeout == 0 {
		confirmTimeout = 2 * time.Minute
	}
	pollInterval := cfg.PollInterval
	if pollInterval == 0 {
		pollInterval = 2 * time.Second
	}

	return &EVMClient{
		eth:            eth,
		chainID:        big.NewInt(cfg.ChainID),
		key:            key,
		treasury:       crypto.PubkeyToAddress(key.PublicKey),
		confirmTimeout: confirmTimeout,
		pollInterval:   pollInterval,
	}, nil
}

// TreasuryAddress returns the shared treasury address.
func (c *EVMClient) TreasuryAddress() string {
	return c.treasury.Hex()
}

// SendTransfer submits a signed native transfer from the treasury.
func (c *EVMClient) SendTransfer(ctx context.Context, toAddress string, amount decimal.Decimal) (string, error) {
	if !common.IsHexAddress(toAddress) {
		return "", fmt.Errorf("destination '%s': %w", toAddress, util.ErrInvalidInput)
	}
	value := WeiFromDecimal(amount)
	if value.Sign() <= 0 {
		return "", fmt.Errorf("amount must be positive: %w", util.ErrInvalidInput)
	}

	c.signerMu.Lock()
	defer c.signerMu.Unlock()

	// Check treasury funding before spending a nonce.
	treasuryBal, err := c.eth.BalanceAt(ctx, c.treasury, nil)
	if err != nil {
		return "", fmt.Errorf("failed to read treasury balance: %w", err)
	}
	if treasuryBal.Cmp(value) < 0 {
		return "", fmt.Errorf("treasury underfunded: %w", util.ErrChainTransferFailed)
	}

	nonce, err := c.eth.PendingNonceAt(ctx, c.treasury)
	if err != nil {
		return "", fmt.Errorf("failed to get treasury nonce: %w", err)
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}

	to := common.HexToAddress(toAddress)
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      transferGas,
		GasPrice: gasPrice,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign transfer: %w", err)
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrChainTransferFailed, err)
	}
	return signed.Hash().Hex(), nil
}

// WaitForConfirmation polls for the transaction receipt until finality or the
// bounded timeout.
func (c *EVMClient) WaitForConfirmation(ctx context.Context, txHash string) error {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	hash := common.HexToHash(txHash)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Timed out or caller gone: the transfer may still land.
			return fmt.Errorf("tx %s: %w", txHash, util.ErrTransferStatusUnknown)
		case <-ticker.C:
			receipt, err := c.eth.TransactionReceipt(ctx, hash)
			if err != nil {
				if errors.Is(err, ethereum.NotFound) {
					continue // still pending
				}
				// Transient RPC failure; keep polling until the deadline.
				continue
			}
			if receipt.Status != types.ReceiptStatusSuccessful {
				return fmt.Errorf("tx %s reverted: %w", txHash, util.ErrChainTransferFailed)
			}
			return nil
		}
	}
}

// TreasuryBalance returns the treasury's balance in whole native tokens.
func (c *EVMClient) TreasuryBalance(ctx context.Context) (decimal.Decimal, error) {
	bal, err := c.eth.BalanceAt(ctx, c.treasury, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read treasury balance: %w", err)
	}
	return DecimalFromWei(bal), nil
}

// WeiFromDecimal converts whole native tokens to wei.
func WeiFromDecimal(amount decimal.Decimal) *big.Int {
	return amount.Shift(nativeDecimals).BigInt()
}

// DecimalFromWei converts wei to whole native tokens.
func DecimalFromWei(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, -nativeDecimals)
}
