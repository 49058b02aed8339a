// Package config resolves CLI configuration from flags, environment, an
// optional config file, and defaults, in that precedence order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration for the CLI.
type Config struct {
	// DataDir holds the SQLite database and the flat fallback files.
	DataDir string `mapstructure:"data_dir"`

	// SQLitePath overrides the database file location. Empty means
	// <data_dir>/notekeep.db.
	SQLitePath string `mapstructure:"sqlite_path"`

	// Fallback forces the flat file store even when SQLite is available.
	Fallback bool `mapstructure:"fallback"`

	// Debug enables debug-level logging.
	Debug bool `mapstructure:"debug"`
}

// DatabasePath returns the effective SQLite file path.
func (c Config) DatabasePath() string {
	if c.SQLitePath != "" {
		return c.SQLitePath
	}
	return filepath.Join(c.DataDir, "notekeep.db")
}

// InitViper creates a viper instance with defaults registered, the
// optional config.toml in the data directory loaded, and NOTEKEEP_
// environment variables bound.
func InitViper(dataDir string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("data_dir", dataDir)
	v.SetDefault("sqlite_path", "")
	v.SetDefault("fallback", false)
	v.SetDefault("debug", false)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(dataDir)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("NOTEKEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// Load unmarshals the resolved viper state into a Config.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// DefaultDataDir resolves the per-user data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".notekeep"
	}
	return filepath.Join(home, ".notekeep")
}
