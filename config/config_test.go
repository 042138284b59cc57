package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "warden.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 10000, cfg.Engine.MaxEntities)
	assert.Equal(t, 256, cfg.Engine.MaxSignalsPerEntity)
	assert.Equal(t, 300, cfg.Engine.TemporalWindowSeconds)
	assert.InDelta(t, 0.65, cfg.Engine.MinConfidenceThreshold, 1e-9)
	assert.Equal(t, 2, cfg.Engine.TimestampToleranceSeconds)
	assert.Equal(t, 3600, cfg.Engine.EntityTTLSeconds)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 1024, cfg.Alerts.BufferSize)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
engine:
  max_entities: 50
  temporal_window_seconds: 120
  min_confidence_threshold: 0.8
logging:
  level: debug
  format: console
metrics:
  enabled: false
alerts:
  buffer_size: 16
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Engine.MaxEntities)
	assert.Equal(t, 120, cfg.Engine.TemporalWindowSeconds)
	assert.InDelta(t, 0.8, cfg.Engine.MinConfidenceThreshold, 1e-9)
	// Untouched keys keep their defaults.
	assert.Equal(t, 256, cfg.Engine.MaxSignalsPerEntity)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 16, cfg.Alerts.BufferSize)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"zero max_entities", "engine:\n  max_entities: 0\n"},
		{"negative signal cap", "engine:\n  max_signals_per_entity: -1\n"},
		{"threshold above one", "engine:\n  min_confidence_threshold: 1.5\n"},
		{"threshold below zero", "engine:\n  min_confidence_threshold: -0.1\n"},
		{"zero lock wait", "engine:\n  lock_wait_millis: 0\n"},
		{"zero dedup cache", "engine:\n  dedup_cache_size: 0\n"},
		{"bad log level", "logging:\n  level: verbose\n"},
		{"bad log format", "logging:\n  format: xml\n"},
		{"zero alert buffer", "alerts:\n  buffer_size: 0\n"},
		{"tolerance swallows window", "engine:\n  temporal_window_seconds: 10\n  timestamp_tolerance_seconds: 10\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	e := EngineConfig{
		TemporalWindowSeconds:     300,
		TimestampToleranceSeconds: 2,
		EntityTTLSeconds:          3600,
		LockWaitMillis:            500,
	}
	assert.Equal(t, "5m0s", e.Window().String())
	assert.Equal(t, "2s", e.TimestampTolerance().String())
	assert.Equal(t, "1h0m0s", e.EntityTTL().String())
	assert.Equal(t, "500ms", e.LockWait().String())
}
