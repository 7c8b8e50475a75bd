package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port        string
	Env         string // development, production, test
	CORSOrigins string
	FrontendURL string
	Currency    string

	Database DatabaseConfig

	JWTKey    string
	JWTExpiry time.Duration
	SaltRound int

	AdminEmail    string
	AdminPassword string

	// CouponRedeemOn is "submit" (usage counted when the UTR is submitted)
	// or "verify" (counted when an admin verifies the payment).
	CouponRedeemOn string

	Stripe StripeConfig

	ReconcileCron    string
	CouponExpiryCron string
}

type DatabaseConfig struct {
	Driver       string // sqlite, postgres, mysql
	DSN          string
	Path         string // sqlite file
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	MaxOpenConns int
	MaxIdleConns int
	TxRetries    int
	Debug        bool
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	APIURL        string
}

// Enabled reports whether a real secret key is configured.
func (s StripeConfig) Enabled() bool {
	return s.SecretKey != "" && !strings.Contains(s.SecretKey, "placeholder")
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	cfg := &Config{
		Port:        getEnv("PORT", "5000"),
		Env:         getEnv("APP_ENV", "development"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		Currency:    getEnv("CURRENCY", "INR"),

		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "sqlite"),
			DSN:          getEnv("DB_DSN", ""),
			Path:         getEnv("DB_PATH", "cyberdravida.db"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Name:         getEnv("DB_NAME", "cyberdravida"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
			TxRetries:    getEnvInt("DB_TX_RETRIES", 3),
			Debug:        getEnvBool("DB_DEBUG", false),
		},

		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		JWTExpiry: getEnvDuration("JWT_EXPIRY", 7*24*time.Hour),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		AdminEmail:    strings.ToLower(getEnv("ADMIN_EMAIL", "admin@cyberdravida.com")),
		AdminPassword: getEnv("ADMIN_PASSWORD", "Admin@123"),

		CouponRedeemOn: strings.ToLower(getEnv("COUPON_REDEEM_ON", "submit")),

		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			APIURL:        getEnv("STRIPE_API_URL", "https://api.stripe.com"),
		},

		ReconcileCron:    getEnv("RECONCILE_CRON", "*/15 * * * *"),
		CouponExpiryCron: getEnv("COUPON_EXPIRY_CRON", "0 1 * * *"),
	}

	// Validate critical configuration
	if cfg.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if cfg.CouponRedeemOn != "submit" && cfg.CouponRedeemOn != "verify" {
		log.Printf("Warning: unknown COUPON_REDEEM_ON %q, falling back to submit", cfg.CouponRedeemOn)
		cfg.CouponRedeemOn = "submit"
	}
	if !cfg.Stripe.Enabled() {
		log.Println("Warning: Stripe not configured. Card checkout will use mock payments.")
	}

	return cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid duration for %s, using default", key)
		return defaultValue
	}
	return d
}
