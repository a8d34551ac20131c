package config

import (
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields. Zero values are replaced, explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	// Normalize for consistent internal representation.
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)

	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = ":8080"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Store.Type == "" {
		cfg.Store.Type = "memory"
	}

	if cfg.Limits.MaxDirectoriesPerGroup == 0 {
		cfg.Limits.MaxDirectoriesPerGroup = 200
	}
	if cfg.Limits.AdminRole == "" {
		cfg.Limits.AdminRole = "admin"
	}
}
