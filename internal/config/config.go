package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	CORSOrigins []string

	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseJWTSecret string

	DatabaseURL      string
	DatabaseMaxConns int

	RedisURL string

	MongoDBURI      string
	MongoDBPassword string
	MongoDBDatabase string

	// signed-order gateway (checkout widget)
	PaymentKeyID     string
	PaymentKeySecret string
	PaymentCurrency  string

	StripeSecretKey     string
	StripeWebhookSecret string

	PendingBookingTTL   time.Duration
	BookingDraftTTL     time.Duration
	IdempotencyTTL      time.Duration
	RateLimitPerMinute  int
	ExpirySweepInterval time.Duration // 0 disables the background sweep

	AdminEmails []string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:        getEnvWithDefault("PORT", "8080"),
		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		CORSOrigins: getEnvAsSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),

		SupabaseURL:       os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:   os.Getenv("SUPABASE_ANON_KEY"),
		SupabaseJWTSecret: os.Getenv("SUPABASE_JWT_SECRET"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DatabaseMaxConns: getEnvAsInt("DATABASE_MAX_CONNS", 10),

		RedisURL: os.Getenv("REDIS_URL"),

		MongoDBURI:      os.Getenv("MONGODB_URI"),
		MongoDBPassword: os.Getenv("MONGODB_PASSWORD"),
		MongoDBDatabase: getEnvWithDefault("MONGODB_DATABASE", "eventix"),

		PaymentKeyID:     getEnvWithDefault("PAYMENT_KEY_ID", "rzp_test_demo"),
		PaymentKeySecret: os.Getenv("PAYMENT_KEY_SECRET"),
		PaymentCurrency:  getEnvWithDefault("PAYMENT_CURRENCY", "INR"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		PendingBookingTTL:   getEnvAsDuration("PENDING_BOOKING_TTL", 15*time.Minute),
		BookingDraftTTL:     getEnvAsDuration("BOOKING_DRAFT_TTL", 30*time.Minute),
		IdempotencyTTL:      getEnvAsDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		RateLimitPerMinute:  getEnvAsInt("RATE_LIMIT_PER_MINUTE", 30),
		ExpirySweepInterval: getEnvAsDuration("EXPIRY_SWEEP_INTERVAL", time.Minute),

		AdminEmails: getEnvAsSlice("ADMIN_EMAILS", nil),
	}

	// Validate required fields
	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseAnonKey == "" {
		return nil, fmt.Errorf("SUPABASE_ANON_KEY is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.PaymentKeySecret == "" {
		return nil, fmt.Errorf("PAYMENT_KEY_SECRET is required")
	}
	if cfg.StripeSecretKey != "" && cfg.StripeWebhookSecret == "" {
		return nil, fmt.Errorf("STRIPE_WEBHOOK_SECRET is required when STRIPE_SECRET_KEY is set")
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsSlice splits a comma separated value, dropping empty entries.
func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) StripeEnabled() bool {
	return c.StripeSecretKey != ""
}

func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}
