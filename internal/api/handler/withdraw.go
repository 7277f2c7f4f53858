// internal/api/handler/withdraw.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"privatepay-relay/internal/chain"
	"privatepay-relay/internal/service"
	"privatepay-relay/internal/util"

	"github.com/shopspring/decimal"
)

// WithdrawHandler handles withdrawal and treasury requests. The relay and
// chain client are nil when no treasury key is configured; those requests
// answer 501 so the frontend can show a "configure relayer" message.
type WithdrawHandler struct {
	relay       service.WithdrawalRelay
	chainClient chain.Client
	logger      *slog.Logger
}

// NewWithdrawHandler creates a new WithdrawHandler.
func NewWithdrawHandler(relay service.WithdrawalRelay, chainClient chain.Client, logger *slog.Logger) *WithdrawHandler {
	return &WithdrawHandler{
		relay:       relay,
		chainClient: chainClient,
		logger:      logger,
	}
}

// WithdrawRequest represents the request body for withdraw.
type WithdrawRequest struct {
	Username           string           `json:"username"`
	Amount             *decimal.Decimal `json:"amount"`
	DestinationAddress string           `json:"destinationAddress"`
}

// Withdraw handles the withdrawal request.
// POST /withdraw
func (h *WithdrawHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(h.logger, w, util.ErrMissingParams)
		return
	}
	if req.Username == "" || req.Amount == nil || req.DestinationAddress == "" {
		respondWithError(h.logger, w, util.ErrMissingParams)
		return
	}
	if h.relay == nil {
		respondWithError(h.logger, w, util.ErrNotConfigured)
		return
	}

	result, err := h.relay.Withdraw(r.Context(), req.Username, *req.Amount, req.DestinationAddress)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	respondWithJSON(h.logger, w, http.StatusOK, result)
}

// Treasury reports the treasury address and its on-chain balance, for
// reconciliation against the ledger.
// GET /treasury
func (h *WithdrawHandler) Treasury(w http.ResponseWriter, r *http.Request) {
	if h.chainClient == nil {
		respondWithError(h.logger, w, util.ErrNotConfigured)
		return
	}
	balance, err := h.chainClient.TreasuryBalance(r.Context())
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}
	respondWithJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"treasuryAddress": h.chainClient.TreasuryAddress(),
		"balance":         balance,
	})
}
