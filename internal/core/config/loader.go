package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Pre-seed defaults; absent YAML fields leave them untouched, an
	// explicit false still wins.
	cfg := AppConfig{
		Recovery: RecoveryConfig{
			EnableProgressiveRecovery: true,
			EnableConflictResolution:  true,
		},
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Recovery.TimeoutMS == 0 {
		cfg.Recovery.TimeoutMS = 30000
	}
	if cfg.Recovery.RetryAttempts == 0 {
		cfg.Recovery.RetryAttempts = 2
	}
	if cfg.Recovery.RetryDelayMS == 0 {
		cfg.Recovery.RetryDelayMS = 500
	}

	// Retry policy belongs to the remote collaborator; mirror it there
	// unless the remote section sets its own.
	if cfg.Remote.RetryAttempts == 0 {
		cfg.Remote.RetryAttempts = cfg.Recovery.RetryAttempts
	}
	if cfg.Remote.RetryDelayMS == 0 {
		cfg.Remote.RetryDelayMS = cfg.Recovery.RetryDelayMS
	}

	return &cfg, nil
}
