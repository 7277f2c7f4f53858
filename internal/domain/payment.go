// internal/domain/payment.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// PaymentStatus defines the semantic kind of a ledger entry.
type PaymentStatus string

const (
	// PaymentStatusCompleted marks an inbound credit (positive amount).
	PaymentStatusCompleted PaymentStatus = "completed"
	// PaymentStatusWithdrawn marks a withdrawal debit (negative amount).
	PaymentStatusWithdrawn PaymentStatus = "withdrawn"
)

// TreasurySender is the sender recorded on withdrawal entries.
const TreasurySender = "treasury"

// Payment is one immutable row in the append-only ledger journal. Sign and
// status jointly encode the kind: credits are positive/completed, withdrawals
// negative/withdrawn. For every username the sum of amounts equals the
// available balance.
type Payment struct {
	ID                string          `db:"id" json:"id"`
	SenderAddress     string          `db:"sender_address" json:"sender_address"`
	RecipientUsername string          `db:"recipient_username" json:"recipient_username"`
	Amount            decimal.Decimal `db:"amount" json:"amount"`
	TxHash            string          `db:"tx_hash" json:"tx_hash"`
	Status            PaymentStatus   `db:"status" json:"status"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`

	// IsSent is computed relative to the viewer when listing history; it is
	// not a column.
	IsSent bool `db:"-" json:"is_sent"`
}

// NewPayment creates a credit entry for a confirmed inbound transfer.
func NewPayment(senderAddress, recipientUsername string, amount decimal.Decimal, txHash string) *Payment {
	return &Payment{
		ID:                uuid.New().String(),
		SenderAddress:     senderAddress,
		RecipientUsername: recipientUsername,
		Amount:            amount,
		TxHash:            txHash,
		Status:            PaymentStatusCompleted,
		CreatedAt:         time.Now().UTC(),
	}
}

// NewWithdrawal creates a debit entry for a confirmed treasury payout.
func NewWithdrawal(username string, amount decimal.Decimal, txHash string) *Payment {
	return &Payment{
		ID:                uuid.New().String(),
		SenderAddress:     TreasurySender,
		RecipientUsername: username,
		Amount:            amount.Neg(),
		TxHash:            txHash,
		Status:            PaymentStatusWithdrawn,
		CreatedAt:         time.Now().UTC(),
	}
}
