// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"privatepay-relay/internal/chain"
	"privatepay-relay/pkg/db"

	"github.com/joho/godotenv"
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort string
	DB         db.Config
	Chain      chain.Config
}

// RelayConfigured reports whether the treasury signing credential is present.
// Without it the service still records payments and serves the ledger; only
// the withdrawal relay answers 501.
func (c *AppConfig) RelayConfigured() bool {
	return c.Chain.TreasuryPrivateKey != "" && c.Chain.RPCURL != ""
}

// LoadConfig loads configuration from the environment, after loading a .env
// file when one is present.
func LoadConfig() (*AppConfig, error) {
	// Missing .env is fine; env vars win in deployment.
	_ = godotenv.Load()

	serverPort := getEnv("SERVER_PORT", "8080")

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	chainID, err := strconv.ParseInt(getEnv("CHAIN_ID", "10143"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CHAIN_ID: %w", err)
	}
	confirmTimeout, err := strconv.Atoi(getEnv("CONFIRM_TIMEOUT_SECONDS", "120"))
	if err != nil {
		return nil, fmt.Errorf("invalid CONFIRM_TIMEOUT_SECONDS: %w", err)
	}
	pollInterval, err := strconv.Atoi(getEnv("CONFIRM_POLL_MS", "2000"))
	if err != nil {
		return nil, fmt.Errorf("invalid CONFIRM_POLL_MS: %w", err)
	}

	return &AppConfig{
		ServerPort: serverPort,
		DB: db.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "privatepay"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Chain: chain.Config{
			RPCURL:             os.Getenv("CHAIN_RPC_URL"),
			ChainID:            chainID,
			TreasuryPrivateKey: os.Getenv("TREASURY_PRIVATE_KEY"),
			ConfirmTimeout:     time.Duration(confirmTimeout) * time.Second,
			PollInterval:       time.Duration(pollInterval) * time.Millisecond,
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
