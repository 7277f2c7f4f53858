// internal/domain/user.go
package domain

import (
	"regexp"
	"strings"
	"time"
)

// User represents a wallet owner known to the ledger.
// WalletAddress is the immutable identity; Username is mutable but globally
// unique across both users and payment link aliases.
type User struct {
	ID            int64     `db:"id" json:"id"`
	WalletAddress string    `db:"wallet_address" json:"wallet_address"`
	Username      string    `db:"username" json:"username"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// NewUser creates a new User instance.
func NewUser(walletAddress, username string) *User {
	now := time.Now().UTC()
	return &User{
		WalletAddress: walletAddress,
		Username:      username,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

var handlePattern = regexp.MustCompile(`[^a-z0-9]`)

// NormalizeHandle lowercases a username/alias candidate and strips everything
// outside [a-z0-9]. Returns "" if nothing survives.
func NormalizeHandle(s string) string {
	return handlePattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
}

// PlaceholderUsername derives a default username for a wallet that has never
// registered one: the last 8 characters of the address, lowercased.
func PlaceholderUsername(walletAddress string) string {
	addr := strings.ToLower(strings.TrimSpace(walletAddress))
	if len(addr) <= 8 {
		return addr
	}
	return addr[len(addr)-8:]
}
