package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "memory")
	t.Setenv("APP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.AppPort)
	assert.True(t, cfg.IsMemory())
	assert.Equal(t, "snapbook", cfg.DatabaseName)
	assert.Equal(t, 3, cfg.AvailabilityRetryAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.AvailabilityRetryBackoff)
	assert.Equal(t, "@every 5m", cfg.ReconcileInterval)
	assert.Equal(t, 30*time.Second, cfg.HealthCheckInterval)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Env: "staging", AvailabilityRetryAttempts: 1}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Env: EnvProduction, AvailabilityRetryAttempts: 1, HealthCheckInterval: time.Second}
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "s3cret"
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.IsProduction())
}
