package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// DBConfig holds the postgres connection settings
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN builds the postgres url used by pgx and golang-migrate, credentials are escaped
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// Config is the whole runtime configuration, read once from the environment (and .env if present)
type Config struct {
	HTTPAddr       string
	StoreBackend   string
	MigrationsPath string
	DB             DBConfig

	// auction rules, parsed by the auction domain
	SettlementMode   string
	CollateralRule   string
	CommitmentScheme string

	KeeperInterval time.Duration
	KeeperBatch    int

	// DevEndpoints mounts the funding and minting routes, never enable it in production
	DevEndpoints bool
}

// Load reads the configuration. Missing optional variables take defaults,
// malformed values are an error so the process fails at startup.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":9000"),
		StoreBackend:   getEnv("STORE_BACKEND", BackendPostgres),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://internal/shared/db/migrations/sql"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		SettlementMode:   getEnv("SETTLEMENT_MODE", "single_phase"),
		CollateralRule:   getEnv("COLLATERAL_RULE", "at_least"),
		CommitmentScheme: getEnv("COMMITMENT_SCHEME", "sha256"),
	}

	var err error
	cfg.KeeperInterval, err = time.ParseDuration(getEnv("KEEPER_INTERVAL", "10s"))
	if err != nil {
		return nil, fmt.Errorf("config: invalid KEEPER_INTERVAL: %w", err)
	}
	cfg.KeeperBatch, err = strconv.Atoi(getEnv("KEEPER_BATCH", "50"))
	if err != nil {
		return nil, fmt.Errorf("config: invalid KEEPER_BATCH: %w", err)
	}
	cfg.DevEndpoints, err = strconv.ParseBool(getEnv("DEV_ENDPOINTS", "false"))
	if err != nil {
		return nil, fmt.Errorf("config: invalid DEV_ENDPOINTS: %w", err)
	}
	if cfg.KeeperInterval <= 0 {
		return nil, fmt.Errorf("config: KEEPER_INTERVAL must be positive, got %s", cfg.KeeperInterval)
	}
	if cfg.KeeperBatch <= 0 {
		return nil, fmt.Errorf("config: KEEPER_BATCH must be positive, got %d", cfg.KeeperBatch)
	}

	switch cfg.StoreBackend {
	case BackendPostgres:
		if cfg.DB.User == "" || cfg.DB.Name == "" {
			return nil, fmt.Errorf("config: DB_USER and DB_NAME are required for the postgres backend")
		}
	case BackendMemory:
	default:
		return nil, fmt.Errorf("config: unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
