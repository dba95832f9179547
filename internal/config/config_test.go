package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/eventix")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("PAYMENT_KEY_SECRET", "secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "INR", cfg.PaymentCurrency)
	assert.Equal(t, "rzp_test_demo", cfg.PaymentKeyID)
	assert.Equal(t, 15*time.Minute, cfg.PendingBookingTTL)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.StripeEnabled())
}

func TestLoadConfigMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("PAYMENT_KEY_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYMENT_KEY_SECRET")
}

func TestLoadConfigStripeNeedsWebhookSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")

	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_123")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.StripeEnabled())
}

func TestLoadConfigParsesTypedValues(t *testing.T) {
	setRequired(t)
	t.Setenv("PENDING_BOOKING_TTL", "5m")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")
	t.Setenv("ADMIN_EMAILS", " ops@example.com, ,root@example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.PendingBookingTTL)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
	assert.Equal(t, []string{"ops@example.com", "root@example.com"}, cfg.AdminEmails)
	assert.True(t, cfg.IsAdminEmail("OPS@example.com"))
	assert.False(t, cfg.IsAdminEmail("someone@example.com"))
}
