package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	unsetenv(t, "DATABASE_URL", "PORT", "JWT_ACCESS_TTL", "JWT_REFRESH_TTL", "INVITE_TTL")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.InviteTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "  ")
	_, err := Load()
	require.EqualError(t, err, "JWT_SECRET is required")
}

func TestLoadRejectsShortRefresh(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_ACCESS_TTL", "1h")
	t.Setenv("JWT_REFRESH_TTL", "30m")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadClientTrimsURL(t *testing.T) {
	unsetenv(t, "PMCTL_TIMEOUT")
	t.Setenv("PMCTL_API_URL", "http://api.local/api/ ")
	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "http://api.local/api", cfg.APIURL)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
}

func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if prev, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, prev) })
		}
		os.Unsetenv(key)
	}
}

func TestLoadRequiresSuperAdminPair(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	unsetenv(t, "JWT_ACCESS_TTL", "JWT_REFRESH_TTL", "SUPERADMIN_PASSWORD")
	t.Setenv("SUPERADMIN_EMAIL", "root@example.com")
	_, err := Load()
	require.EqualError(t, err, "SUPERADMIN_EMAIL and SUPERADMIN_PASSWORD must be set together")

	t.Setenv("SUPERADMIN_PASSWORD", "Sup3rsecret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "root@example.com", cfg.SuperAdminEmail)
}
