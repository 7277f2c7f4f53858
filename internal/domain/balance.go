// internal/domain/balance.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// Balance is the available custodial balance for one username.
// It is only ever mutated through the ledger's atomic adjustment: credited by
// the payment recorder, debited by the withdrawal relay. Never negative.
type Balance struct {
	ID               int64           `db:"id" json:"id"`
	Username         string          `db:"username" json:"username"`
	WalletAddress    string          `db:"wallet_address" json:"wallet_address"`
	AvailableBalance decimal.Decimal `db:"available_balance" json:"available_balance"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// NewBalance creates a zero balance for a username.
func NewBalance(username, walletAddress string) *Balance {
	now := time.Now().UTC()
	return &Balance{
		Username:         username,
		WalletAddress:    walletAddress,
		AvailableBalance: decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// ZeroBalance returns the default object presented for usernames with no
// balance row yet. Callers never see "not found" for balances; absence and
// zero look the same at the boundary.
func ZeroBalance(username string) *Balance {
	now := time.Now().UTC()
	return &Balance{
		Username:         username,
		AvailableBalance: decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
