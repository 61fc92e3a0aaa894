package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/efreitasn/stockmatch/internal/domain"
	"github.com/efreitasn/stockmatch/internal/store/postgres"
)

// Store kinds accepted by STORE.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds all runtime configuration for the matching service.
type Config struct {
	Port                   int           `env:"PORT" envDefault:"8080"`
	LogLevel               string        `env:"LOG_LEVEL" envDefault:"info"`
	Store                  string        `env:"STORE" envDefault:"memory"`
	LockTimeout            time.Duration `env:"LOCK_TIMEOUT" envDefault:"5s"`
	DefaultCashBalance     string        `env:"DEFAULT_CASH_BALANCE" envDefault:"100000.00"`
	ReferencePriceInterval time.Duration `env:"REFERENCE_PRICE_INTERVAL" envDefault:"30s"`
	ReferencePriceWindow   time.Duration `env:"REFERENCE_PRICE_WINDOW" envDefault:"5m"`
	ReadTimeout            time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout           time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	IdleTimeout            time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout        time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Postgres postgres.Config `envPrefix:"POSTGRES_"`

	// DefaultCash is DefaultCashBalance in cents, filled in by Load.
	DefaultCash int64
}

// Load reads configuration from the environment (and a .env file when
// present), applies defaults, and validates values. It returns an error for
// any invalid value.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT: %d, must be between 1 and 65535", cfg.Port)
	}
	if !isValidLogLevel(cfg.LogLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", cfg.LogLevel)
	}
	if cfg.Store != StoreMemory && cfg.Store != StorePostgres {
		return nil, fmt.Errorf("invalid STORE: %q, must be one of: memory, postgres", cfg.Store)
	}

	for name, d := range map[string]time.Duration{
		"LOCK_TIMEOUT":             cfg.LockTimeout,
		"REFERENCE_PRICE_INTERVAL": cfg.ReferencePriceInterval,
		"REFERENCE_PRICE_WINDOW":   cfg.ReferencePriceWindow,
		"READ_TIMEOUT":             cfg.ReadTimeout,
		"WRITE_TIMEOUT":            cfg.WriteTimeout,
		"IDLE_TIMEOUT":             cfg.IdleTimeout,
		"SHUTDOWN_TIMEOUT":         cfg.ShutdownTimeout,
	} {
		if d <= 0 {
			return nil, fmt.Errorf("invalid %s: %v, must be positive", name, d)
		}
	}

	cash, err := domain.ParseMoney(cfg.DefaultCashBalance)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_CASH_BALANCE: %w", err)
	}
	if cash < 0 {
		return nil, fmt.Errorf("invalid DEFAULT_CASH_BALANCE: %q, must be >= 0", cfg.DefaultCashBalance)
	}
	cfg.DefaultCash = cash

	return cfg, nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
