package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SECRET", "session")
	t.Setenv("CSRF_SECRET", "csrf")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10*time.Minute, cfg.LoginCodeTTL)
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis().Addr)
	assert.Empty(t, cfg.Tracing().Endpoint)
	assert.Equal(t, "infolibrary", cfg.Tracing().ServiceName)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOGIN_CODE_TTL", "5m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 5*time.Minute, cfg.LoginCodeTTL)
	assert.Equal(t, 3, cfg.Redis().DB)
	assert.Equal(t, "collector:4317", cfg.Tracing().Endpoint)
}

func TestLoadConfigRejectsShortJWTSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "short")

	_, err := LoadConfig()
	assert.Error(t, err)
}
