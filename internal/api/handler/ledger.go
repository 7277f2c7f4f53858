// internal/api/handler/ledger.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"privatepay-relay/internal/api/types"
	"privatepay-relay/internal/domain"
	"privatepay-relay/internal/service"
	"privatepay-relay/internal/util"

	"github.com/go-chi/chi/v5"
)

// LedgerHandler handles user, balance, history, and payment link requests.
type LedgerHandler struct {
	ledger service.LedgerService
	logger *slog.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledger service.LedgerService, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{
		ledger: ledger,
		logger: logger,
	}
}

// RegisterUserRequest represents the request body for registration.
type RegisterUserRequest struct {
	WalletAddress string `json:"walletAddress"`
	Username      string `json:"username"`
}

// RegisterUser handles idempotent user registration.
// POST /users/register
func (h *LedgerHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(h.logger, w, util.ErrMissingParams)
		return
	}
	if req.WalletAddress == "" {
		respondWithError(h.logger, w, util.ErrMissingParams)
		return
	}

	user, err := h.ledger.GetOrCreateUser(r.Context(), req.WalletAddress, req.Username)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}
	respondWithJSON(h.logger, w, http.StatusOK, user)
}

// UpdateUsernameRequest represents the request body for a username change.
type UpdateUsernameRequest struct {
	Username string `json:"username"`
}

// UpdateUsername handles a username change for a wallet.
// PUT /users/{walletAddress}/username
func (h *LedgerHandler) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	walletAddress := chi.URLParam(r, "walletAddress")

	var req UpdateUsernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(h.logger, w, util.ErrMissingParams)
		return
	}
	if req.Username == "" {
		respondWithError(h.logger, w, util.ErrMissingParams)
		return
	}

	user, err := h.ledger.UpdateUsername(r.Context(), walletAddress, req.Username)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}
	respondWithJSON(h.logger, w, http.StatusOK, user)
}

// GetBalance handles the balance read; absent balances present as zero.
// GET /balances/{username}
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	balance, err := h.ledger.GetBalance(r.Context(), username)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}
	respondWithJSON(h.logger, w, http.StatusOK, balance)
}

// GetPaymentHistory handles the merged sent/received history for a viewer.
// GET /payments?username=&limit=&offset=
func (h *LedgerHandler) GetPaymentHistory(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		respondWithError(h.logger, w, util.ErrMissingParams)
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	payments, err := h.ledger.GetPaymentHistory(r.Context(), username, limit, offset)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}
	respondWithJSON(h.logger, w, http.StatusOK, types.PaginatedResponse[domain.Payment]{
		Data:   payments,
		Limit:  limit,
		Offset: offset,
	})
}

// CreateLinkRequest represents the request body for payment link creation.
type CreateLinkRequest struct {
	WalletAddress string `json:"walletAddress"`
	Username      string `json:"username"`
	Alias         string `json:"alias"`
}

// CreateLink handles payment link creation.
// POST /links
func (h *LedgerHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(h.logger, w, util.ErrMissingParams)
		return
	}
	if req.WalletAddress == "" || req.Alias == "" {
		respondWithError(h.logger, w, util.ErrMissingParams)
		return
	}

	link, err := h.ledger.CreatePaymentLink(r.Context(), req.WalletAddress, req.Username, req.Alias)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}
	respondWithJSON(h.logger, w, http.StatusCreated, link)
}

// GetLinks handles listing a wallet's payment links.
// GET /links?wallet=
func (h *LedgerHandler) GetLinks(w http.ResponseWriter, r *http.Request) {
	wallet := r.URL.Query().Get("wallet")
	if wallet == "" {
		respondWithError(h.logger, w, util.ErrMissingParams)
		return
	}
	links, err := h.ledger.GetPaymentLinks(r.Context(), wallet)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}
	respondWithJSON(h.logger, w, http.StatusOK, links)
}

// GetLinkByAlias handles the alias resolution probe.
// GET /links/{alias}
func (h *LedgerHandler) GetLinkByAlias(w http.ResponseWriter, r *http.Request) {
	alias := chi.URLParam(r, "alias")
	link, err := h.ledger.GetPaymentLinkByAlias(r.Context(), alias)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}
	respondWithJSON(h.logger, w, http.StatusOK, link)
}

// DeleteLink handles payment link deletion.
// DELETE /links/{id}
func (h *LedgerHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.ledger.DeletePaymentLink(r.Context(), id); err != nil {
		respondWithError(h.logger, w, err)
		return
	}
	respondWithJSON(h.logger, w, http.StatusOK, map[string]bool{"success": true})
}
