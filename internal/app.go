// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	router "privatepay-relay/internal/api"
	"privatepay-relay/internal/api/handler"
	"privatepay-relay/internal/chain"
	"privatepay-relay/internal/config"
	"privatepay-relay/internal/notify"
	"privatepay-relay/internal/repository"
	"privatepay-relay/internal/repository/postgres"
	"privatepay-relay/internal/service"
	"privatepay-relay/internal/util"
	"privatepay-relay/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB

	// Repositories
	UserRepository        repository.UserRepository
	BalanceRepository     repository.BalanceRepository
	PaymentRepository     repository.PaymentRepository
	PaymentLinkRepository repository.PaymentLinkRepository

	// Chain + notifications
	ChainClient chain.Client
	Hub         *notify.Hub

	// Services
	Resolver        service.AliasResolver
	LedgerService   service.LedgerService
	PaymentRecorder service.PaymentRecorder
	WithdrawalRelay service.WithdrawalRelay

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger()
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Connect to Database and apply migrations
	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	if err := db.RunMigrations(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	app.Logger.Info("Database connection established and migrations applied.")

	// 4. Initialize Repositories
	app.UserRepository = postgres.NewUserRepository(app.DB)
	app.BalanceRepository = postgres.NewBalanceRepository(app.DB)
	app.PaymentRepository = postgres.NewPaymentRepository(app.DB)
	app.PaymentLinkRepository = postgres.NewPaymentLinkRepository(app.DB)
	app.Logger.Info("Repositories initialized.")

	// 5. Chain client: only when the treasury credential is configured.
	// Without it the ledger runs normally and withdrawals answer 501.
	if app.Config.RelayConfigured() {
		chainClient, err := chain.NewEVMClient(app.Config.Chain)
		if err != nil {
			return fmt.Errorf("failed to initialize chain client: %w", err)
		}
		app.ChainClient = chainClient
		app.Logger.Info("Chain client initialized.", "treasury", chainClient.TreasuryAddress())
	} else {
		app.Logger.Warn("Treasury credential not configured; withdrawal relay disabled.")
	}

	// 6. Notification hub
	app.Hub = notify.NewHub()

	// 7. Initialize Services
	app.Resolver = service.NewAliasResolver(app.DB, app.UserRepository, app.PaymentLinkRepository)
	app.LedgerService = service.NewLedgerService(
		app.DB, // DBTxBeginner
		app.DB, // DBExecutor
		app.UserRepository,
		app.BalanceRepository,
		app.PaymentRepository,
		app.PaymentLinkRepository,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
		app.Logger,
	)
	app.PaymentRecorder = service.NewPaymentRecorder(
		app.DB,
		app.DB,
		app.Resolver,
		app.BalanceRepository,
		app.PaymentRepository,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
		app.Hub,
		app.Logger,
	)
	if app.ChainClient != nil {
		app.WithdrawalRelay = service.NewWithdrawalRelay(
			app.DB,
			app.DB,
			app.Resolver,
			app.BalanceRepository,
			app.PaymentRepository,
			app.ChainClient,
			db.BeginTx,
			db.CommitTx,
			db.RollbackTx,
			app.Hub,
			app.Logger,
		)
	}
	app.Logger.Info("Services initialized.")

	// 8. Initialize HTTP Handlers and Router
	ledgerHandler := handler.NewLedgerHandler(app.LedgerService, app.Logger)
	paymentHandler := handler.NewPaymentHandler(app.PaymentRecorder, app.Logger)
	withdrawHandler := handler.NewWithdrawHandler(app.WithdrawalRelay, app.ChainClient, app.Logger)
	streamHandler := handler.NewBalanceStreamHandler(app.Hub, app.Logger)
	app.HTTPHandler = router.NewRouter(ledgerHandler, paymentHandler, withdrawHandler, streamHandler, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
