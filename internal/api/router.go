// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"privatepay-relay/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(
	ledgerHandler *handler.LedgerHandler,
	paymentHandler *handler.PaymentHandler,
	withdrawHandler *handler.WithdrawHandler,
	streamHandler *handler.BalanceStreamHandler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// The balance stream stays outside the timeout middleware: websocket
	// connections are long-lived by design.
	r.Get("/ws/balance", streamHandler.Stream)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(handler.DefaultTimeout))

		// Withdrawal relay + treasury status
		r.Post("/withdraw", withdrawHandler.Withdraw)
		r.Get("/treasury", withdrawHandler.Treasury)

		// Payment notification + history
		r.Post("/payments", paymentHandler.RecordPayment)
		r.Get("/payments", ledgerHandler.GetPaymentHistory)

		// Users and balances
		r.Post("/users/register", ledgerHandler.RegisterUser)
		r.Put("/users/{walletAddress}/username", ledgerHandler.UpdateUsername)
		r.Get("/balances/{username}", ledgerHandler.GetBalance)

		// Payment links
		r.Route("/links", func(r chi.Router) {
			r.Post("/", ledgerHandler.CreateLink)
			r.Get("/", ledgerHandler.GetLinks)
			r.Get("/{alias}", ledgerHandler.GetLinkByAlias)
			r.Delete("/{id}", ledgerHandler.DeleteLink)
		})
	})

	return r
}
