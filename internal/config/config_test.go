package config

import (
	"testing"
	"time"

	apperrors "github.com/raw-labs/machine-prediction-demo/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "GATEWAY", "EXECUTOR_URL", "FEATURE_STORE", "ADMIN_ENABLED", "GATEWAY_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, GatewayRaw, cfg.Gateway.Backend)
	assert.Equal(t, "https://eu-just-ask.raw-labs.com/executor", cfg.Gateway.ExecutorURL)
	assert.Equal(t, time.Duration(0), cfg.Gateway.Timeout)
	assert.Equal(t, StoreFile, cfg.Store.Backend)
	assert.True(t, cfg.Profiling.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("GATEWAY", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/telemetry")
	t.Setenv("FEATURE_STORE", "badger")
	t.Setenv("ADMIN_ENABLED", "false")
	t.Setenv("GATEWAY_TIMEOUT", "45s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, GatewayPostgres, cfg.Gateway.Backend)
	assert.Equal(t, StoreBadger, cfg.Store.Backend)
	assert.False(t, cfg.Profiling.Enabled)
	assert.Equal(t, 45*time.Second, cfg.Gateway.Timeout)
}

func TestLoadRejectsInvalidBackends(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown gateway", map[string]string{"GATEWAY": "mysql"}},
		{"postgres without url", map[string]string{"GATEWAY": "postgres", "DATABASE_URL": ""}},
		{"unknown store", map[string]string{"GATEWAY": "raw", "FEATURE_STORE": "s3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
		})
	}
}
