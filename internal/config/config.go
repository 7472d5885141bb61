// Package config provides configuration utilities for the application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/hollis/centavo/internal/common"
)

// Config is the resolved application configuration. Values come from the
// config file, CENTAVO_ environment variables, and defaults, in that
// precedence order via Viper.
type Config struct {
	Mode       string     `mapstructure:"mode"`
	Tenant     string     `mapstructure:"tenant"`
	Local      Local      `mapstructure:"local"`
	Cloud      Cloud      `mapstructure:"cloud"`
	Recurrence Recurrence `mapstructure:"recurrence"`
	Logging    Logging    `mapstructure:"logging"`
}

// Local configures the embedded SQLite backend.
type Local struct {
	DBPath string `mapstructure:"db_path"`
}

// Cloud configures the remote PostgreSQL backend.
type Cloud struct {
	DSN string `mapstructure:"dsn"`
}

// Recurrence configures the recurring transaction engine.
type Recurrence struct {
	CatchUp            string `mapstructure:"catch_up"`
	DateFlexWindowDays int    `mapstructure:"date_flex_window_days"`
}

// Logging configures log output.
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers the default values on the global Viper instance.
func SetDefaults() {
	viper.SetDefault("mode", "local")
	viper.SetDefault("tenant", "default")
	viper.SetDefault("local.db_path", defaultDBPath())
	viper.SetDefault("cloud.dsn", "")
	viper.SetDefault("recurrence.catch_up", "collapse")
	viper.SetDefault("recurrence.date_flex_window_days", 3)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
}

// Load unmarshals the global Viper state into a validated Config.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}
	cfg.Local.DBPath = ExpandPath(cfg.Local.DBPath)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configured mode can actually be opened.
func (c *Config) Validate() error {
	switch c.Mode {
	case "local", "demo":
	case "cloud":
		if c.Cloud.DSN == "" {
			return fmt.Errorf("%w: cloud mode requires cloud.dsn", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage mode %q", common.ErrInvalidConfig, c.Mode)
	}
	switch c.Recurrence.CatchUp {
	case "collapse", "backfill", "":
	default:
		return fmt.Errorf("%w: unknown catch-up policy %q", common.ErrInvalidConfig, c.Recurrence.CatchUp)
	}
	if c.Recurrence.DateFlexWindowDays < 0 {
		return fmt.Errorf("%w: recurrence.date_flex_window_days must not be negative", common.ErrInvalidConfig)
	}
	return nil
}

// SaveMode persists the active storage mode back to the config file so it
// survives restarts. Creates the config file on first use.
func SaveMode(mode string) error {
	viper.Set("mode", mode)
	if err := viper.WriteConfig(); err == nil {
		return nil
	}
	path := viper.ConfigFileUsed()
	if path == "" {
		path = filepath.Join(DefaultConfigDir(), "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return viper.WriteConfigAs(path)
}

// DefaultConfigDir returns the per-user configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "centavo")
}

// ExpandPath resolves a leading ~ to the user's home directory and expands
// $VAR environment references, so paths in the config file and in CENTAVO_
// variables behave the same way.
func ExpandPath(path string) string {
	switch {
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

func defaultDBPath() string {
	return filepath.Join(DefaultConfigDir(), "centavo.db")
}
