// Package config loads mediastore configuration from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingDatabase is returned when no database is configured.
var ErrMissingDatabase = errors.New("missing database: set database in config or MEDIASTORE_DATABASE")

// Environment variables that override file values.
const (
	EnvDatabase = "MEDIASTORE_DATABASE"
	EnvAddr     = "MEDIASTORE_ADDR"
	EnvLibrary  = "MEDIASTORE_LIBRARY"
	EnvLogLevel = "MEDIASTORE_LOG_LEVEL"
)

// Defaults.
const (
	DefaultAddr     = "127.0.0.1:8080"
	DefaultLogLevel = "info"
	DefaultPath     = "~/.config/mediastore/config.yaml"
)

// Config holds mediastore configuration.
type Config struct {
	// Database is a postgres:// DSN or a SQLite file path.
	Database string        `yaml:"database"`
	Server   ServerConfig  `yaml:"server"`
	Library  LibraryConfig `yaml:"library"`
	Log      LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LibraryConfig struct {
	Root string `yaml:"root"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads config from path, then applies environment overrides and defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(expandHome(path))
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	if v := os.Getenv(EnvDatabase); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(EnvLibrary); v != "" {
		cfg.Library.Root = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	cfg.Database = ExpandDatabase(cfg.Database)
	cfg.Library.Root = expandHome(cfg.Library.Root)

	return cfg, nil
}

// Validate reports whether the config is usable.
func (c *Config) Validate() error {
	if c.Database == "" {
		return ErrMissingDatabase
	}
	return nil
}

// ExpandDatabase expands a leading ~ in a SQLite path, with or without the
// sqlite:// prefix. Other DSNs are returned unchanged.
func ExpandDatabase(dsn string) string {
	const sqlitePrefix = "sqlite://"
	if rest, ok := strings.CutPrefix(dsn, sqlitePrefix); ok {
		return sqlitePrefix + expandHome(rest)
	}
	if strings.Contains(dsn, "://") {
		return dsn
	}
	return expandHome(dsn)
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}
