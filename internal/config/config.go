package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Portal   PortalConfig
	Redis    RedisConfig
	LogLevel string
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Port           int
	GinMode        string
	LoginRateLimit int
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	URL     string
	TestURL string // Separate database for integration tests
}

// AuthConfig holds the authentication configuration
type AuthConfig struct {
	JWTSecret      string
	TokenTTLHours  int
	PasswordScheme string
}

// PortalConfig holds the business constants shown on the member dashboard
type PortalConfig struct {
	SharePrice    decimal.Decimal
	MinLoanAmount decimal.Decimal
}

// RedisConfig holds the optional session store configuration
type RedisConfig struct {
	URL string
}

// LoadConfig loads the configuration from environment variables and an
// optional .env file in the working directory.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("LOGIN_RATE_LIMIT", 20)
	v.SetDefault("TOKEN_TTL_HOURS", 8)
	v.SetDefault("PASSWORD_SCHEME", "plain")
	v.SetDefault("SHARE_PRICE", "5.00")
	v.SetDefault("LOAN_MIN_AMOUNT", "10")
	v.SetDefault("LOG_LEVEL", "info")

	// A missing .env file is fine; the environment still applies.
	_ = v.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetInt("SERVER_PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			LoginRateLimit: v.GetInt("LOGIN_RATE_LIMIT"),
		},
		Database: DatabaseConfig{
			URL:     strings.TrimSpace(v.GetString("DB_URL")),
			TestURL: strings.TrimSpace(v.GetString("TEST_DB_URL")),
		},
		Auth: AuthConfig{
			JWTSecret:      v.GetString("JWT_SECRET"),
			TokenTTLHours:  v.GetInt("TOKEN_TTL_HOURS"),
			PasswordScheme: strings.ToLower(v.GetString("PASSWORD_SCHEME")),
		},
		Redis: RedisConfig{
			URL: v.GetString("REDIS_URL"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DB_URL is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Auth.TokenTTLHours <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL_HOURS must be positive, got %d", cfg.Auth.TokenTTLHours)
	}

	var err error
	if cfg.Portal.SharePrice, err = parseAmount(v, "SHARE_PRICE"); err != nil {
		return nil, err
	}
	if cfg.Portal.MinLoanAmount, err = parseAmount(v, "LOAN_MIN_AMOUNT"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseAmount(v *viper.Viper, key string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
