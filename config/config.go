// Package config provides environment-based configuration for the storefront.
//
// Configuration is loaded from environment variables using Viper, with
// defaults suitable for local development.
//
// # Environment Variables
//
//   - DB_TYPE: Database type (sqlite, postgres, mysql). Default: sqlite
//   - DSN: Database connection string. Default: storefront.db
//   - LOG_LEVEL: Logging level (debug, info, warn, error). Default: info
//   - PORT: HTTP server port. Default: 8080
//   - BASE_URL: Public URL used to build recovery and invite links
//   - TOKEN_SECRET: HMAC secret for recovery/invite links (required, >= 32 bytes)
//   - SESSION_STRATEGY: database or jwt. Default: database
//   - SESSION_SECRET: Signing key for jwt sessions
//   - SESSION_TTL: Session lifetime. Default: 24h
//   - DISPLAY_RATE / DISPLAY_CURRENCY: Static display conversion. Default: 140 KES
//   - WHATSAPP_NUMBER: Number that brokers WhatsApp payments
//   - CACHE_BACKEND: memory or redis. Default: memory
//   - CACHE_TTL: Lifetime of cached catalog/quote responses. Default: 5m
//   - REDIS_ADDR: Redis address when CACHE_BACKEND=redis
//   - RECOVERY_RATE: Recovery requests per minute per email. Default: 3
//   - ADMIN_EMAIL / ADMIN_PASSWORD: Optional bootstrap administrator
//   - CATALOG_FILE: Optional YAML file replacing the embedded catalog
//
// # Example Usage
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MinSecretLength is the shortest TOKEN_SECRET accepted.
const MinSecretLength = 32

type Config struct {
	DBType          string        `mapstructure:"DB_TYPE"` // sqlite, postgres, mysql
	DSN             string        `mapstructure:"DSN"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	Port            int           `mapstructure:"PORT"`
	BaseURL         string        `mapstructure:"BASE_URL"`
	TokenSecret     string        `mapstructure:"TOKEN_SECRET"`
	SessionStrategy string        `mapstructure:"SESSION_STRATEGY"`
	SessionSecret   string        `mapstructure:"SESSION_SECRET"`
	SessionTTL      time.Duration `mapstructure:"SESSION_TTL"`
	DisplayRate     float64       `mapstructure:"DISPLAY_RATE"`
	DisplayCurrency string        `mapstructure:"DISPLAY_CURRENCY"`
	WhatsAppNumber  string        `mapstructure:"WHATSAPP_NUMBER"`
	CacheBackend    string        `mapstructure:"CACHE_BACKEND"`
	CacheTTL        time.Duration `mapstructure:"CACHE_TTL"`
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RecoveryRate    int           `mapstructure:"RECOVERY_RATE"`
	AdminEmail      string        `mapstructure:"ADMIN_EMAIL"`
	AdminPassword   string        `mapstructure:"ADMIN_PASSWORD"`
	CatalogFile     string        `mapstructure:"CATALOG_FILE"`
}

func LoadConfig() (*Config, error) {
	v := viper.New()

	// Every key needs a default so AutomaticEnv picks it up during Unmarshal.
	v.SetDefault("DB_TYPE", "sqlite")
	v.SetDefault("DSN", "storefront.db")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", 8080)
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("TOKEN_SECRET", "")
	v.SetDefault("SESSION_STRATEGY", "database")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_TTL", 24*time.Hour)
	v.SetDefault("DISPLAY_RATE", 140.0)
	v.SetDefault("DISPLAY_CURRENCY", "KES")
	v.SetDefault("WHATSAPP_NUMBER", "")
	v.SetDefault("CACHE_BACKEND", "memory")
	v.SetDefault("CACHE_TTL", 5*time.Minute)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("RECOVERY_RATE", 3)
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("CATALOG_FILE", "")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports the first configuration problem that would prevent the
// service from starting.
func (c *Config) Validate() error {
	switch c.DBType {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("config: unsupported DB_TYPE %q", c.DBType)
	}

	if len(c.TokenSecret) < MinSecretLength {
		return fmt.Errorf("config: TOKEN_SECRET must be at least %d bytes", MinSecretLength)
	}

	switch c.SessionStrategy {
	case "database":
	case "jwt":
		if len(c.SessionSecret) < MinSecretLength {
			return fmt.Errorf("config: SESSION_SECRET must be at least %d bytes for jwt sessions", MinSecretLength)
		}
	default:
		return fmt.Errorf("config: unsupported SESSION_STRATEGY %q", c.SessionStrategy)
	}

	if c.SessionTTL <= 0 {
		return errors.New("config: SESSION_TTL must be positive")
	}

	if c.DisplayRate <= 0 {
		return errors.New("config: DISPLAY_RATE must be positive")
	}

	switch c.CacheBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unsupported CACHE_BACKEND %q", c.CacheBackend)
	}

	if c.RecoveryRate <= 0 {
		return errors.New("config: RECOVERY_RATE must be positive")
	}

	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("config: ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	return nil
}
