// Package config loads and validates the server configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (GROUPDRIVE_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config represents the complete server configuration.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Server contains the HTTP listener settings
	Server ServerConfig `mapstructure:"server"`

	// Store specifies the directory store type and type-specific
	// configuration
	Store StoreConfig `mapstructure:"store"`

	// Limits carries the engine's tunable limits
	Limits LimitsConfig `mapstructure:"limits"`

	// Groups seeds the in-process group directory at startup
	Groups []GroupConfig `mapstructure:"groups" validate:"dive"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
}

// ServerConfig contains the HTTP listener settings.
type ServerConfig struct {
	// ListenAddress is the host:port the REST adapter binds to
	ListenAddress string `mapstructure:"listen_address" validate:"required"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`
}

// StoreConfig specifies the directory store configuration. The Type field
// selects the implementation; only the matching type-specific section is
// used.
type StoreConfig struct {
	// Type specifies which store implementation to use.
	// Valid values: memory, badger
	Type string `mapstructure:"type" validate:"required,oneof=memory badger"`

	// Badger contains badger-specific configuration.
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`
}

// BadgerStoreConfig is the typed shape of the badger section.
type BadgerStoreConfig struct {
	// Path is the database directory
	Path string `mapstructure:"path"`

	// InMemory runs badger without disk persistence
	InMemory bool `mapstructure:"in_memory"`
}

// BadgerConfig decodes the badger section into its typed form.
func (c StoreConfig) BadgerConfig() (BadgerStoreConfig, error) {
	var cfg BadgerStoreConfig
	if err := mapstructure.Decode(c.Badger, &cfg); err != nil {
		return BadgerStoreConfig{}, fmt.Errorf("store.badger: %w", err)
	}
	if !cfg.InMemory && cfg.Path == "" {
		return BadgerStoreConfig{}, errors.New("store.badger: path is required unless in_memory is set")
	}
	return cfg, nil
}

// LimitsConfig carries the engine's tunable limits.
type LimitsConfig struct {
	// MaxDirectoriesPerGroup caps how many directories one group may own
	MaxDirectoriesPerGroup int `mapstructure:"max_directories_per_group" validate:"required,gte=1"`

	// AdminRole names the administrative role
	AdminRole string `mapstructure:"admin_role" validate:"required"`
}

// GroupConfig seeds one group into the in-process group directory.
type GroupConfig struct {
	// Name is the group identifier
	Name string `mapstructure:"name" validate:"required"`

	// Roles are the roles known for the group
	Roles []string `mapstructure:"roles" validate:"min=1"`

	// Members maps actor names to their role
	Members map[string]string `mapstructure:"members"`
}

// Load reads the configuration from path (or the default search path when
// path is empty), applies defaults and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("groupdrive")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/groupdrive")
	}

	v.SetEnvPrefix("GROUPDRIVE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine when no explicit path was given;
		// defaults and environment variables still apply.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
