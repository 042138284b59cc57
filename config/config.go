// Package config loads and validates the Warden configuration. Invalid
// configuration refuses startup; there is no degraded runtime mode.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EngineConfig bounds the correlation engine. All limits must be non-zero;
// the confidence threshold must lie in [0,1]. Immutable after Load.
type EngineConfig struct {
	// MaxEntities caps the number of concurrently tracked entities.
	MaxEntities int `mapstructure:"max_entities" validate:"gt=0"`
	// MaxSignalsPerEntity caps each entity's signal sequence (FIFO eviction).
	MaxSignalsPerEntity int `mapstructure:"max_signals_per_entity" validate:"gt=0"`
	// TemporalWindowSeconds is the sliding correlation window.
	TemporalWindowSeconds int `mapstructure:"temporal_window_seconds" validate:"gt=0"`
	// MinConfidenceThreshold is the emission floor for detections.
	MinConfidenceThreshold float64 `mapstructure:"min_confidence_threshold" validate:"gte=0,lte=1"`
	// TimestampToleranceSeconds bounds how far an event timestamp may lag the
	// entity's last accepted timestamp before it counts as a regression.
	TimestampToleranceSeconds int `mapstructure:"timestamp_tolerance_seconds" validate:"gte=0"`
	// EntityTTLSeconds is the inactivity horizon for the maintenance sweep.
	EntityTTLSeconds int `mapstructure:"entity_ttl_seconds" validate:"gt=0"`
	// LockWaitMillis bounds the wait for per-entity exclusive access.
	LockWaitMillis int `mapstructure:"lock_wait_millis" validate:"gt=0"`
	// DedupCacheSize bounds the emitted-alert dedup cache.
	DedupCacheSize int `mapstructure:"dedup_cache_size" validate:"gt=0"`
	// ProfilesPath optionally points at a YAML signal-profile override file.
	ProfilesPath string `mapstructure:"profiles_path"`
}

// Config holds all configuration for the Warden service.
type Config struct {
	Engine EngineConfig `mapstructure:"engine"`

	Logging struct {
		// Level is one of debug, info, warn, error.
		Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
		// Format is "json" or "console".
		Format string `mapstructure:"format" validate:"oneof=json console"`
	} `mapstructure:"logging"`

	Metrics struct {
		Enabled bool   `mapstructure:"enabled"`
		Addr    string `mapstructure:"addr"`
	} `mapstructure:"metrics"`

	Alerts struct {
		// BufferSize is the channel sink capacity; delivery preserves
		// generation order.
		BufferSize int `mapstructure:"buffer_size" validate:"gt=0"`
	} `mapstructure:"alerts"`
}

// Window returns the temporal window as a duration.
func (e EngineConfig) Window() time.Duration {
	return time.Duration(e.TemporalWindowSeconds) * time.Second
}

// TimestampTolerance returns the timestamp regression tolerance as a duration.
func (e EngineConfig) TimestampTolerance() time.Duration {
	return time.Duration(e.TimestampToleranceSeconds) * time.Second
}

// EntityTTL returns the entity inactivity TTL as a duration.
func (e EngineConfig) EntityTTL() time.Duration {
	return time.Duration(e.EntityTTLSeconds) * time.Second
}

// LockWait returns the bounded per-entity lock wait as a duration.
func (e EngineConfig) LockWait() time.Duration {
	return time.Duration(e.LockWaitMillis) * time.Millisecond
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.max_entities", 10000)
	v.SetDefault("engine.max_signals_per_entity", 256)
	v.SetDefault("engine.temporal_window_seconds", 300)
	v.SetDefault("engine.min_confidence_threshold", 0.65)
	v.SetDefault("engine.timestamp_tolerance_seconds", 2)
	v.SetDefault("engine.entity_ttl_seconds", 3600)
	v.SetDefault("engine.lock_wait_millis", 500)
	v.SetDefault("engine.dedup_cache_size", 4096)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.addr", "127.0.0.1:9464")
	v.SetDefault("alerts.buffer_size", 1024)
}

// Load reads configuration from the optional file at path (YAML), applies
// WARDEN_* environment overrides and validates the result. A validation
// failure is a startup refusal, not a warning.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("WARDEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the configuration invariants.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	// Tolerance may not swallow the whole window; a regression tolerance
	// wider than the window would let replayed events re-enter every window.
	if c.Engine.TimestampToleranceSeconds >= c.Engine.TemporalWindowSeconds {
		return fmt.Errorf("invalid configuration: timestamp_tolerance_seconds (%d) must be smaller than temporal_window_seconds (%d)",
			c.Engine.TimestampToleranceSeconds, c.Engine.TemporalWindowSeconds)
	}
	return nil
}
