// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
//
// The taxonomy matters for handlers: validation and resolution errors map to
// 4xx with no side effects, conflict errors mean the ledger rejected the
// mutation, chain errors mean the on-chain step failed before any ledger
// change, and ErrLedgerDebitFailed is the invariant-violation class (treasury
// paid out, ledger not debited) that must be alerted on, never retried.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidInput        = errors.New("invalid input provided")
	ErrMissingParams       = errors.New("missing required parameters")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrAliasTaken          = errors.New("alias already taken")
	ErrRecipientNotFound   = errors.New("recipient not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrDuplicateEntry      = errors.New("duplicate entry")
	ErrNotConfigured       = errors.New("withdrawal relayer not configured")
	ErrLedgerUnavailable   = errors.New("ledger storage unavailable")

	// Chain transfer outcomes. Failed means the transfer definitely did not
	// happen (reverted, rejected, underfunded); the user's credit is intact
	// and a retry is safe. Unknown means confirmation timed out: the transfer
	// may still land, so it must not be treated as failure or success and
	// must never be retried automatically.
	ErrChainTransferFailed   = errors.New("chain transfer failed")
	ErrTransferStatusUnknown = errors.New("chain transfer status unknown")

	// ErrLedgerDebitFailed: the on-chain transfer confirmed but the ledger
	// debit did not go through. Requires manual reconciliation.
	ErrLedgerDebitFailed = errors.New("ledger debit failed after confirmed chain transfer")
)

// IsError reports whether err matches target in its chain.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
