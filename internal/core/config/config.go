package config

import (
	"time"

	redisclient "github.com/vietddude/salvage/internal/infra/redis"
	"github.com/vietddude/salvage/internal/infra/remote"
	"github.com/vietddude/salvage/internal/infra/storage/postgres"
	"github.com/vietddude/salvage/internal/recovery"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Logging  LoggingConfig      `yaml:"logging"`
	Recovery RecoveryConfig     `yaml:"recovery"`
	Redis    redisclient.Config `yaml:"redis"`
	Database postgres.Config    `yaml:"database"`
	Remote   RemoteConfig       `yaml:"remote"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// RecoveryConfig is the YAML shape of the recovery settings. Durations are
// integer milliseconds on disk.
type RecoveryConfig struct {
	TimeoutMS                 int  `yaml:"timeout_ms"`
	RetryAttempts             int  `yaml:"retry_attempts"`
	RetryDelayMS              int  `yaml:"retry_delay_ms"`
	EnableProgressiveRecovery bool `yaml:"enable_progressive_recovery"`
	EnableConflictResolution  bool `yaml:"enable_conflict_resolution"`
}

// Runtime converts the YAML shape into the coordinator's config.
func (c RecoveryConfig) Runtime() recovery.Config {
	return recovery.Config{
		Timeout:                   time.Duration(c.TimeoutMS) * time.Millisecond,
		RetryAttempts:             c.RetryAttempts,
		RetryDelay:                time.Duration(c.RetryDelayMS) * time.Millisecond,
		EnableProgressiveRecovery: c.EnableProgressiveRecovery,
		EnableConflictResolution:  c.EnableConflictResolution,
	}
}

// RemoteConfig is the YAML shape of the remote API settings.
type RemoteConfig struct {
	BaseURL       string `yaml:"base_url"`
	TimeoutMS     int    `yaml:"timeout_ms"`
	RetryAttempts int    `yaml:"retry_attempts"`
	RetryDelayMS  int    `yaml:"retry_delay_ms"`
}

// Runtime converts the YAML shape into the remote client's config.
func (c RemoteConfig) Runtime() remote.Config {
	return remote.Config{
		BaseURL:       c.BaseURL,
		Timeout:       time.Duration(c.TimeoutMS) * time.Millisecond,
		RetryAttempts: c.RetryAttempts,
		RetryDelay:    time.Duration(c.RetryDelayMS) * time.Millisecond,
	}
}
