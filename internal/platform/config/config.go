package config

import (
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port          string
	IsProduction  bool
	LogLevel      slog.Level
	JWTSecret     string
	DatabaseURL   string
	EnableDBCheck bool

	// Billing backend
	BillingAPIBaseURL string
	BillingAPIToken   string
	BillingAPITimeout time.Duration
	EnableMockAPI     bool

	// Back office behavior
	BulkConcurrency int
	DefaultCurrency string
	DisplayLocale   string
	DisplayTimezone *time.Location
	SessionIdleTTL  time.Duration

	// HTTP surface
	CORSAllowedOrigins []string
	RateLimit          string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("BILLING_API_BASE_URL", "")
	viper.SetDefault("BILLING_API_TOKEN", "")
	viper.SetDefault("BILLING_API_TIMEOUT", "10s")
	viper.SetDefault("ENABLE_MOCK_API", false)
	viper.SetDefault("BULK_CONCURRENCY", 4)
	viper.SetDefault("DEFAULT_CURRENCY", "USD")
	viper.SetDefault("DISPLAY_LOCALE", "en-US")
	viper.SetDefault("DISPLAY_TIMEZONE", "UTC")
	viper.SetDefault("SESSION_IDLE_TTL", "2h")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("RATE_LIMIT", "300-M")

	viper.AutomaticEnv()

	cfg := &Config{
		Port:              viper.GetString("PORT"),
		IsProduction:      viper.GetBool("IS_PRODUCTION"),
		JWTSecret:         viper.GetString("JWT_SECRET"),
		DatabaseURL:       viper.GetString("PGSQL_URL"),
		EnableDBCheck:     viper.GetBool("ENABLE_DB_CHECK"),
		BillingAPIBaseURL: strings.TrimRight(viper.GetString("BILLING_API_BASE_URL"), "/"),
		BillingAPIToken:   viper.GetString("BILLING_API_TOKEN"),
		EnableMockAPI:     viper.GetBool("ENABLE_MOCK_API"),
		BulkConcurrency:   viper.GetInt("BULK_CONCURRENCY"),
		DefaultCurrency:   strings.ToUpper(viper.GetString("DEFAULT_CURRENCY")),
		DisplayLocale:     viper.GetString("DISPLAY_LOCALE"),
		RateLimit:         viper.GetString("RATE_LIMIT"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(viper.GetString("LOG_LEVEL"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	timeout, err := time.ParseDuration(viper.GetString("BILLING_API_TIMEOUT"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("invalid BILLING_API_TIMEOUT %q", viper.GetString("BILLING_API_TIMEOUT"))
	}
	cfg.BillingAPITimeout = timeout

	if !cfg.EnableMockAPI && cfg.BillingAPIBaseURL == "" {
		return nil, fmt.Errorf("BILLING_API_BASE_URL must be set unless ENABLE_MOCK_API is true")
	}
	if cfg.EnableMockAPI && cfg.IsProduction {
		log.Println("Warning: ENABLE_MOCK_API is set in production. All billing data is fake.")
	}

	if cfg.BulkConcurrency <= 0 {
		return nil, fmt.Errorf("BULK_CONCURRENCY must be positive, got %d", cfg.BulkConcurrency)
	}

	loc, err := time.LoadLocation(viper.GetString("DISPLAY_TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE: %w", err)
	}
	cfg.DisplayTimezone = loc

	ttl, err := time.ParseDuration(viper.GetString("SESSION_IDLE_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_IDLE_TTL: %w", err)
	}
	cfg.SessionIdleTTL = ttl

	for _, origin := range strings.Split(viper.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	if cfg.DatabaseURL == "" {
		log.Println("Info: PGSQL_URL not set. Audit entries are written to the log only.")
	}

	return cfg, nil
}
