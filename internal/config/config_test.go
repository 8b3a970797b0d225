package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"HOST", "PORT", "DEBUG", "ERROR_MODE", "REDIS_ADDR", "CACHE_TTL",
	"RATE_LIMIT", "RATE_LIMIT_WINDOW", "CORS_ORIGINS", "SHUTDOWN_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	// t.Setenv restores the previous value on cleanup; an empty value
	// falls back to the default for every key but HOST, PORT and REDIS_ADDR.
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("PORT", "5000")
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("ERROR_MODE", "parity")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5000", cfg.Addr())
	assert.False(t, cfg.Debug)
	assert.Equal(t, ModeParity, cfg.ErrorMode)
	assert.False(t, cfg.CacheEnabled())
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 0, cfg.RateLimit)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "8080")
	t.Setenv("DEBUG", "true")
	t.Setenv("ERROR_MODE", "HARDENED")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CACHE_TTL", "5s")
	t.Setenv("RATE_LIMIT", "10")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.True(t, cfg.Debug)
	assert.Equal(t, ModeHardened, cfg.ErrorMode)
	assert.True(t, cfg.CacheEnabled())
	assert.Equal(t, 5*time.Second, cfg.CacheTTL)
	assert.Equal(t, 10, cfg.RateLimit)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"PORT":              "http",
		"ERROR_MODE":        "lenient",
		"DEBUG":             "maybe",
		"CACHE_TTL":         "soon",
		"RATE_LIMIT":        "-1",
		"SHUTDOWN_TIMEOUT":  "10",
		"RATE_LIMIT_WINDOW": "abc",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := Load()
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
