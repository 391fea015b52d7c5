package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "ENVIRONMENT", "LOG_LEVEL", "DATABASE_URL", "AUTO_MIGRATE", "JWT_SECRET",
	"JWT_EXPIRATION_HOURS", "STORAGE_PATH", "WORKER_COUNT", "BILLING_CRON", "TIMEZONE",
	"CURRENCY", "EXPIRY_WARNING_DAYS", "ALLOWED_ORIGINS", "RESEND_API_KEY", "FROM_EMAIL",
	"WKHTMLTOPDF_PATH", "SENTRY_DSN",
}

// clearEnv unsets every key Load reads; t.Setenv restores them afterwards
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/rentdesk")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, "0 1 * * *", cfg.BillingCron)
	assert.Equal(t, "Asia/Dubai", cfg.Timezone)
	assert.Equal(t, "AED", cfg.Currency)
	assert.Equal(t, 30, cfg.ExpiryWarningDays)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.False(t, cfg.EmailEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/rentdesk")
	t.Setenv("AUTO_MIGRATE", "true")
	t.Setenv("WORKER_COUNT", "9")
	t.Setenv("JWT_EXPIRATION_HOURS", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("RESEND_API_KEY", "re_test")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, 9, cfg.WorkerCount)
	assert.Equal(t, 24, cfg.JWTExpirationHours)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.True(t, cfg.EmailEnabled())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing database", map[string]string{}, "DATABASE_URL"},
		{"production without secret", map[string]string{
			"DATABASE_URL": "postgres://localhost/rentdesk",
			"ENVIRONMENT":  "production",
		}, "JWT_SECRET"},
		{"non-positive warning window", map[string]string{
			"DATABASE_URL":        "postgres://localhost/rentdesk",
			"EXPIRY_WARNING_DAYS": "0",
		}, "EXPIRY_WARNING_DAYS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
