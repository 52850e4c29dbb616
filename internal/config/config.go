// Package config loads and saves koshin's TOML configuration and resolves
// the on-disk locations it uses.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

const appName = "koshin"

// Config holds all koshin configuration.
type Config struct {
	General       GeneralConfig       `toml:"general"`
	Storage       StorageConfig       `toml:"storage"`
	Notifications NotificationsConfig `toml:"notifications"`
	Daemon        DaemonConfig        `toml:"daemon"`
	Logging       LoggingConfig       `toml:"logging"`
	Appearance    AppearanceConfig    `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	UpcomingDays        int `toml:"upcoming_days"`
	DefaultReminderDays int `toml:"default_reminder_days"`
}

// StorageConfig selects where contracts are kept.
type StorageConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path,omitempty"`
}

// NotificationsConfig controls whether reminders may be scheduled.
type NotificationsConfig struct {
	Enabled bool `toml:"enabled"`
}

// DaemonConfig holds background reminder daemon settings.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	IntervalSec  int    `toml:"interval_sec"`
	EventsBuffer int    `toml:"events_buffer"`
}

// LoggingConfig holds logging configuration options.
type LoggingConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	OutputFile string `toml:"output_file,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			UpcomingDays:        30,
			DefaultReminderDays: 7,
		},
		Storage: StorageConfig{
			Backend: "sqlite",
		},
		Notifications: NotificationsConfig{
			Enabled: true,
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8787",
			IntervalSec:  60,
			EventsBuffer: 200,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG data directory holding the contract database.
func DataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// StateDir returns the XDG state directory holding daemon pid and state files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, appName)
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's config location
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to the default location.
func Save(cfg Config) error {
	return SaveTo(cfg, ConfigPath())
}

// SaveTo writes the config to path.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // path is the user's config location
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// StoragePath returns the database location: KOSHIN_DB, then the configured
// path, then a per-backend default under DataDir.
func StoragePath(cfg Config) string {
	if p := os.Getenv("KOSHIN_DB"); p != "" {
		return p
	}
	if cfg.Storage.Path != "" {
		return cfg.Storage.Path
	}
	if cfg.Storage.Backend == "badger" {
		return filepath.Join(DataDir(), "badger")
	}
	return filepath.Join(DataDir(), "koshin.db")
}
