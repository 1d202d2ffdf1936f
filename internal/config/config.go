// Package config loads service configuration from the environment and
// supplies fee rates to the engine.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mmynk/tontine/internal/fees"
)

// Lock backends.
const (
	LockMemory = "memory"
	LockRedis  = "redis"
)

// Config holds the server configuration.
type Config struct {
	Port      string `env:"PORT"       envDefault:"8080"`
	DBPath    string `env:"DB_PATH"    envDefault:"data/tontine.db"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// OperatorIDs are the user IDs allowed to change fee rates at runtime.
	OperatorIDs []string `env:"OPERATOR_USER_IDS" envSeparator:","`

	TransactionFeePercent  string `env:"TRANSACTION_FEE_PERCENT"  envDefault:"1"`
	DistributionFeePercent string `env:"DISTRIBUTION_FEE_PERCENT" envDefault:"1"`
	// FeeCacheTTL enables runtime fee overrides from the settings table when
	// positive.
	FeeCacheTTL time.Duration `env:"FEE_CACHE_TTL" envDefault:"30s"`

	WalletTimeout time.Duration `env:"WALLET_TIMEOUT" envDefault:"10s"`

	LockBackend   string        `env:"LOCK_BACKEND"   envDefault:"memory"`
	RedisAddr     string        `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	LockTTL       time.Duration `env:"LOCK_TTL"       envDefault:"30s"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS"   envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c Config) Validate() error {
	if _, err := c.Fees(); err != nil {
		return err
	}
	if c.WalletTimeout <= 0 {
		return fmt.Errorf("WALLET_TIMEOUT must be positive, got %s", c.WalletTimeout)
	}
	switch c.LockBackend {
	case LockMemory:
	case LockRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when LOCK_BACKEND=redis")
		}
		if c.LockTTL <= c.WalletTimeout {
			return fmt.Errorf("LOCK_TTL (%s) must exceed WALLET_TIMEOUT (%s)", c.LockTTL, c.WalletTimeout)
		}
	default:
		return fmt.Errorf("unknown LOCK_BACKEND %q", c.LockBackend)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}

// Fees parses the configured percentages.
func (c Config) Fees() (fees.Schedule, error) {
	tx, err := fees.ParseRate(c.TransactionFeePercent)
	if err != nil {
		return fees.Schedule{}, fmt.Errorf("TRANSACTION_FEE_PERCENT: %w", err)
	}
	dist, err := fees.ParseRate(c.DistributionFeePercent)
	if err != nil {
		return fees.Schedule{}, fmt.Errorf("DISTRIBUTION_FEE_PERCENT: %w", err)
	}
	return fees.Schedule{Transaction: tx, Distribution: dist}, nil
}
