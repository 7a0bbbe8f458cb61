package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 3030, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "debug", cfg.Telemetry.Level)
	assert.Equal(t, "console", cfg.Telemetry.Format)
	assert.Equal(t, "0.0.0.0:3030", cfg.Addr())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SERVER_HOST", "127.0.0.1")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "trace")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "trace", cfg.Telemetry.Level)
	assert.Equal(t, "json", cfg.Telemetry.Format)
}

func TestLoadValidation(t *testing.T) {
	t.Run("rejects unknown log level", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "loud")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects unknown environment", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "moon")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("malformed port falls back to default", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "not-a-port")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 3030, cfg.Server.Port)
	})
}
