package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers supported by the application.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	CORS           CORSConfig
	Auth           AuthConfig
	Receipts       ReceiptsConfig
	Billing        BillingConfig
	PaymentOptions PaymentOptionsConfig
	Gateway        GatewayConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	PublicBaseURL  string
	RequestTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection configuration.
// Driver selects between PostgreSQL and the in-process memory store.
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// ReceiptsConfig controls where receipts are written and how many render workers run.
type ReceiptsConfig struct {
	Dir         string
	Workers     int
	QueueSize   int
	WaitTimeout time.Duration
}

// BillingConfig holds the due date and overdue policy.
type BillingConfig struct {
	DueDay           int
	OverdueGraceDays int
	SweepCron        string
	SweepEnabled     bool
}

// PaymentOptionsConfig holds the payment instructions shown to tenants at startup.
type PaymentOptionsConfig struct {
	UPIID             string
	UPIQRBaseURL      string
	BankName          string
	AccountHolderName string
	AccountNumber     string
	IFSCCode          string
	Branch            string
}

// GatewayConfig holds Midtrans credentials. An empty server key disables the gateway.
type GatewayConfig struct {
	ServerKey  string
	Production bool
}

// Enabled reports whether gateway checkout and notifications are available.
func (g GatewayConfig) Enabled() bool {
	return g.ServerKey != ""
}

// Load reads configuration from a .env file (if present) and environment variables.
// Values already present in the environment win over the .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "5000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:5000")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "rentapp")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("RECEIPTS_DIR", "./receipts")
	v.SetDefault("RECEIPT_WORKERS", 2)
	v.SetDefault("RECEIPT_QUEUE_SIZE", 64)
	v.SetDefault("RECEIPT_WAIT_TIMEOUT", "10s")
	v.SetDefault("RENT_DUE_DAY", 5)
	v.SetDefault("OVERDUE_GRACE_DAYS", 0)
	v.SetDefault("OVERDUE_SWEEP_CRON", "0 2 * * *")
	v.SetDefault("OVERDUE_SWEEP_ENABLED", true)
	v.SetDefault("UPI_QR_BASE_URL", "https://api.qrserver.com/v1/create-qr-code/?size=200x200&data=")
	v.SetDefault("MIDTRANS_PRODUCTION", false)

	// Bind environment variables
	v.AutomaticEnv()

	// Build configuration
	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			Env:            v.GetString("ENV"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			PublicBaseURL:  strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("STORE_DRIVER")),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			TokenTTL:  v.GetDuration("JWT_TTL"),
		},
		Receipts: ReceiptsConfig{
			Dir:         v.GetString("RECEIPTS_DIR"),
			Workers:     v.GetInt("RECEIPT_WORKERS"),
			QueueSize:   v.GetInt("RECEIPT_QUEUE_SIZE"),
			WaitTimeout: v.GetDuration("RECEIPT_WAIT_TIMEOUT"),
		},
		Billing: BillingConfig{
			DueDay:           v.GetInt("RENT_DUE_DAY"),
			OverdueGraceDays: v.GetInt("OVERDUE_GRACE_DAYS"),
			SweepCron:        v.GetString("OVERDUE_SWEEP_CRON"),
			SweepEnabled:     v.GetBool("OVERDUE_SWEEP_ENABLED"),
		},
		PaymentOptions: PaymentOptionsConfig{
			UPIID:             v.GetString("UPI_ID"),
			UPIQRBaseURL:      v.GetString("UPI_QR_BASE_URL"),
			BankName:          v.GetString("BANK_NAME"),
			AccountHolderName: v.GetString("BANK_ACCOUNT_HOLDER"),
			AccountNumber:     v.GetString("BANK_ACCOUNT_NUMBER"),
			IFSCCode:          v.GetString("BANK_IFSC"),
			Branch:            v.GetString("BANK_BRANCH"),
		},
		Gateway: GatewayConfig{
			ServerKey:  v.GetString("MIDTRANS_SERVER_KEY"),
			Production: v.GetBool("MIDTRANS_PRODUCTION"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Server.PublicBaseURL == "" {
		return fmt.Errorf("PUBLIC_BASE_URL is required")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	switch c.Database.Driver {
	case StoreDriverMemory:
		// No connection settings needed
	case StoreDriverPostgres:
		if err := c.Database.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q",
			StoreDriverPostgres, StoreDriverMemory, c.Database.Driver)
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}

	if c.Receipts.Dir == "" {
		return fmt.Errorf("RECEIPTS_DIR is required")
	}
	if c.Receipts.Workers < 1 {
		return fmt.Errorf("RECEIPT_WORKERS must be at least 1")
	}
	if c.Receipts.QueueSize < 1 {
		return fmt.Errorf("RECEIPT_QUEUE_SIZE must be at least 1")
	}
	if c.Receipts.WaitTimeout <= 0 {
		return fmt.Errorf("RECEIPT_WAIT_TIMEOUT must be positive")
	}

	if c.Billing.DueDay < 1 || c.Billing.DueDay > 31 {
		return fmt.Errorf("RENT_DUE_DAY must be between 1 and 31")
	}
	if c.Billing.OverdueGraceDays < 0 {
		return fmt.Errorf("OVERDUE_GRACE_DAYS must be non-negative")
	}
	if c.Billing.SweepEnabled && c.Billing.SweepCron == "" {
		return fmt.Errorf("OVERDUE_SWEEP_CRON is required when the overdue sweep is enabled")
	}

	return nil
}

func (d DatabaseConfig) validate() error {
	if d.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if d.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if d.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if d.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if d.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if d.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if d.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if d.PoolMin > d.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}
	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
