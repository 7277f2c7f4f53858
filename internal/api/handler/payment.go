// internal/api/handler/payment.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"privatepay-relay/internal/service"
	"privatepay-relay/internal/util"

	"github.com/shopspring/decimal"
)

// PaymentHandler handles inbound payment notifications.
type PaymentHandler struct {
	recorder service.PaymentRecorder
	logger   *slog.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(recorder service.PaymentRecorder, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		recorder: recorder,
		logger:   logger,
	}
}

// RecordPaymentRequest represents the payment notification body. The payer's
// client calls this after the chain confirmed its deposit to the treasury.
type RecordPaymentRequest struct {
	SenderAddress       string           `json:"senderAddress"`
	RecipientIdentifier string           `json:"recipientIdentifier"`
	Amount              *decimal.Decimal `json:"amount"`
	TxHash              string           `json:"txHash"`
}

// RecordPayment handles the payment notification.
// POST /payments
func (h *PaymentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(h.logger, w, util.ErrMissingParams)
		return
	}
	if req.RecipientIdentifier == "" || req.Amount == nil || req.TxHash == "" {
		respondWithError(h.logger, w, util.ErrMissingParams)
		return
	}

	payment, err := h.recorder.RecordPayment(r.Context(), req.SenderAddress, req.RecipientIdentifier, *req.Amount, req.TxHash)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	respondWithJSON(h.logger, w, http.StatusCreated, payment)
}
