// internal/api/handler/respond.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"privatepay-relay/internal/api/types"
	"privatepay-relay/internal/util"
)

// DefaultTimeout bounds request handling. Withdrawals wait for on-chain
// confirmation, so this sits above the chain client's confirmation timeout.
const DefaultTimeout = 3 * time.Minute

func respondWithJSON(logger *slog.Logger, w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithError maps the service error taxonomy onto the HTTP contract:
// validation 400, missing config 501, conflicts 409, chain failures 502,
// invariant violations 500.
func respondWithError(logger *slog.Logger, w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	body := types.ErrorResponse{Error: "internal_error"}

	switch {
	case util.IsError(err, util.ErrMissingParams):
		statusCode = http.StatusBadRequest
		body = types.ErrorResponse{Error: "missing_params", Message: "Requires username, amount, and destinationAddress"}
	case util.IsError(err, util.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		body = types.ErrorResponse{Error: "invalid_params", Message: err.Error()}
	case util.IsError(err, util.ErrNotConfigured):
		statusCode = http.StatusNotImplemented
		body = types.ErrorResponse{
			Error:   "not_configured",
			Message: "Withdrawal relayer is not configured. Set the treasury key to process withdrawals from the treasury.",
		}
	case util.IsError(err, util.ErrInsufficientBalance):
		statusCode = http.StatusConflict
		body = types.ErrorResponse{Error: "insufficient_balance", Message: "Amount exceeds available balance"}
	case util.IsError(err, util.ErrUsernameTaken), util.IsError(err, util.ErrAliasTaken):
		statusCode = http.StatusConflict
		body = types.ErrorResponse{Error: "username_taken", Message: err.Error()}
	case util.IsError(err, util.ErrRecipientNotFound):
		statusCode = http.StatusNotFound
		body = types.ErrorResponse{Error: "recipient_not_found", Message: err.Error()}
	case util.IsError(err, util.ErrNotFound), util.IsError(err, util.ErrUserNotFound):
		statusCode = http.StatusNotFound
		body = types.ErrorResponse{Error: "not_found", Message: "Resource not found"}
	case util.IsError(err, util.ErrChainTransferFailed):
		statusCode = http.StatusBadGateway
		body = types.ErrorResponse{Error: "chain_transfer_failed", Message: "On-chain transfer failed; no funds were debited"}
	case util.IsError(err, util.ErrTransferStatusUnknown):
		// Distinct from a definite failure: the transfer may still land and
		// must not be retried blindly.
		statusCode = http.StatusBadGateway
		body = types.ErrorResponse{Error: "chain_transfer_unknown", Message: "Transfer status unknown; do not retry before reconciling"}
	case util.IsError(err, util.ErrLedgerDebitFailed):
		statusCode = http.StatusInternalServerError
		body = types.ErrorResponse{Error: "ledger_debit_failed", Message: "Transfer confirmed on-chain but the ledger debit failed; manual reconciliation required"}
	case util.IsError(err, util.ErrLedgerUnavailable):
		statusCode = http.StatusServiceUnavailable
		body = types.ErrorResponse{Error: "ledger_unavailable", Message: "Ledger storage is unreachable"}
	default:
		logger.Error("Unhandled service error", "error", err)
	}

	respondWithJSON(logger, w, statusCode, body)
}
