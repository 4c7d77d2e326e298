// Package config loads and saves the tripwidget TOML configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Env overrides, applied after the file is read.
const (
	EnvContainerDir = "TRIPWIDGET_CONTAINER_DIR"
	EnvLogLevel     = "TRIPWIDGET_LOG_LEVEL"
)

// Channel names accepted in ChannelsConfig.Order.
const (
	ChannelDatabase = "database"
	ChannelRegister = "register"
	ChannelFile     = "file"
)

// Config holds all tripwidget configuration.
type Config struct {
	Channels   ChannelsConfig   `toml:"channels"`
	Refresh    RefreshConfig    `toml:"refresh"`
	Display    DisplayConfig    `toml:"display"`
	Log        LogConfig        `toml:"log"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// ChannelsConfig locates the shared channels the producer exports to.
// Relative paths are resolved against ContainerDir.
type ChannelsConfig struct {
	ContainerDir string   `toml:"container_dir"`
	Order        []string `toml:"order"`
	Database     string   `toml:"database"`
	Register     string   `toml:"register"`
	TripsKey     string   `toml:"trips_key,omitempty"`
	Files        []string `toml:"files"`
}

// RefreshConfig tunes the refresh hint.
type RefreshConfig struct {
	Interval    Duration `toml:"interval"`
	Backoff     Duration `toml:"backoff"`
	MinInterval Duration `toml:"min_interval"`
}

// DisplayConfig picks which trip the widget shows.
type DisplayConfig struct {
	Mode   string `toml:"mode"`
	TripID string `toml:"trip_id,omitempty"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" or "json"
}

// DaemonConfig holds the reference host's settings.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	EventsBuffer int    `toml:"events_buffer"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// Duration is a time.Duration written as a string such as "15m" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Channels: ChannelsConfig{
			ContainerDir: filepath.Join(DataDir(), "group"),
			Order:        []string{ChannelDatabase, ChannelRegister, ChannelFile},
			Database:     "TripData.sqlite",
			Register:     "group.defaults.json",
			Files: []string{
				"widget_data.json",
				filepath.Join(DataDir(), "WidgetData", "widget_data.json"),
			},
		},
		Refresh: RefreshConfig{
			Interval:    Duration{time.Hour},
			Backoff:     Duration{15 * time.Minute},
			MinInterval: Duration{time.Minute},
		},
		Display: DisplayConfig{Mode: "auto"},
		Log:     LogConfig{Level: "info", Format: "text"},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8788",
			EventsBuffer: 200,
		},
		Appearance: AppearanceConfig{Theme: "flexoki-dark"},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tripwidget")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tripwidget")
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "tripwidget")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "tripwidget")
}

// StateDir returns the directory for daemon pid and log files.
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "tripwidget")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "tripwidget")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config at path. Env overrides apply either way.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own config
	switch {
	case err == nil:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if dir := os.Getenv(EnvContainerDir); dir != "" {
		cfg.Channels.ContainerDir = dir
	}
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		cfg.Log.Level = lvl
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes the config to path, creating parent directories.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // path is the user's own config
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// Resolve makes p absolute against the container directory.
func (c ChannelsConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ContainerDir, p)
}

// SlogLevel maps the configured level name, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(l.Level))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
