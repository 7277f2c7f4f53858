// internal/domain/payment_link.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentLink maps a human-chosen alias to a wallet/username. Several aliases
// may point at the same wallet; an alias never holds balance itself. Links are
// created and deleted, never updated.
type PaymentLink struct {
	ID            string    `db:"id" json:"id"`
	WalletAddress string    `db:"wallet_address" json:"wallet_address"`
	Username      string    `db:"username" json:"username"`
	Alias         string    `db:"alias" json:"alias"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// NewPaymentLink creates a new PaymentLink instance.
func NewPaymentLink(walletAddress, username, alias string) *PaymentLink {
	return &PaymentLink{
		ID:            uuid.New().String(),
		WalletAddress: walletAddress,
		Username:      username,
		Alias:         alias,
		CreatedAt:     time.Now().UTC(),
	}
}
