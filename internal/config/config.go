// Package config loads and saves the spendwise TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/theirongolddev/spendwise/internal/categorize"
)

// Config holds all spendwise configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Store      StoreConfig      `toml:"store"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Alerts     AlertsConfig     `toml:"alerts"`
	Categorize CategorizeConfig `toml:"categorize"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	UserID        string `toml:"user_id"`
	DefaultMonths int    `toml:"default_months"`
	ImportDir     string `toml:"import_dir,omitempty"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `toml:"path,omitempty"`
}

// DaemonConfig holds background service settings.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	IntervalSecs int    `toml:"interval_secs"`
	EventsBuffer int    `toml:"events_buffer"`
	LogJSON      bool   `toml:"log_json"`
}

// AlertsConfig configures the AMQP anomaly publisher. An empty URL disables it.
type AlertsConfig struct {
	AMQPURL    string `toml:"amqp_url,omitempty"`
	Exchange   string `toml:"exchange"`
	RoutingKey string `toml:"routing_key"`
}

// CategorizeConfig holds user keyword rules tried after the built-in table.
type CategorizeConfig struct {
	Rules []categorize.Rule `toml:"rules,omitempty"`
}

// Interval returns the daemon poll interval.
func (d DaemonConfig) Interval() time.Duration {
	return time.Duration(d.IntervalSecs) * time.Second
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			UserID:        "default",
			DefaultMonths: 12,
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8788",
			IntervalSecs: 30,
			EventsBuffer: 200,
		},
		Alerts: AlertsConfig{
			Exchange:   "spendwise",
			RoutingKey: "anomalies",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "spendwise")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "spendwise")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "spendwise")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "spendwise")
}

// StorePath returns the configured database path or the default one.
func (c Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(DataDir(), "spendwise.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied last.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config at path. A .env file in the working directory is
// loaded into the environment first when present.
func LoadFrom(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own config
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SPENDWISE_USER_ID"); v != "" {
		cfg.General.UserID = v
	}
	if v := os.Getenv("SPENDWISE_DB"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("SPENDWISE_AMQP_URL"); v != "" {
		cfg.Alerts.AMQPURL = v
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes the config to path with owner-only permissions.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user config path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return toml.NewEncoder(f).Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// Classifier builds the categorizer from built-in and configured rules.
func (c Config) Classifier() (*categorize.Classifier, error) {
	return categorize.WithDefaults(c.Categorize.Rules)
}
