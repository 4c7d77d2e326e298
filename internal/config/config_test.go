package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvContainerDir, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Refresh.Interval.Duration != time.Hour {
		t.Errorf("Interval = %v, want 1h", cfg.Refresh.Interval)
	}
	if len(cfg.Channels.Order) != 3 || cfg.Channels.Order[0] != ChannelDatabase {
		t.Errorf("Order = %v", cfg.Channels.Order)
	}
	if cfg.Display.Mode != "auto" {
		t.Errorf("Mode = %q, want auto", cfg.Display.Mode)
	}
}

func TestLoadFrom_ParsesFile(t *testing.T) {
	t.Setenv(EnvContainerDir, "")
	t.Setenv(EnvLogLevel, "")

	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[channels]
container_dir = "/srv/group"
order = ["file"]
files = ["export.json"]

[refresh]
interval = "30m"
backoff = "5m"

[display]
mode = "pinned"
trip_id = "abc"

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Refresh.Interval.Duration != 30*time.Minute || cfg.Refresh.Backoff.Duration != 5*time.Minute {
		t.Errorf("Refresh = %+v", cfg.Refresh)
	}
	if cfg.Refresh.MinInterval.Duration != time.Minute {
		t.Errorf("MinInterval = %v, want default 1m kept", cfg.Refresh.MinInterval)
	}
	if got := cfg.Channels.Resolve(cfg.Channels.Files[0]); got != filepath.Join("/srv/group", "export.json") {
		t.Errorf("Resolve = %q", got)
	}
	if cfg.Display.TripID != "abc" {
		t.Errorf("TripID = %q, want abc", cfg.Display.TripID)
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, want debug", cfg.Log.SlogLevel())
	}
}

func TestLoadFrom_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[refresh]\ninterval = \"soon\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for bad duration")
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	t.Setenv(EnvContainerDir, "/tmp/shared")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Channels.ContainerDir != "/tmp/shared" {
		t.Errorf("ContainerDir = %q", cfg.Channels.ContainerDir)
	}
	if cfg.Log.SlogLevel() != slog.LevelWarn {
		t.Errorf("SlogLevel = %v, want warn", cfg.Log.SlogLevel())
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	t.Setenv(EnvContainerDir, "")
	t.Setenv(EnvLogLevel, "")

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.Display = DisplayConfig{Mode: "upcoming"}
	cfg.Refresh.Backoff = Duration{2 * time.Minute}

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.Display.Mode != "upcoming" || got.Refresh.Backoff.Duration != 2*time.Minute {
		t.Errorf("round trip = %+v / %v", got.Display, got.Refresh.Backoff)
	}
}

func TestResolveKeepsAbsolute(t *testing.T) {
	c := ChannelsConfig{ContainerDir: "/a"}
	if got := c.Resolve("/b/c.json"); got != "/b/c.json" {
		t.Errorf("Resolve = %q", got)
	}
	if got := c.Resolve(""); got != "" {
		t.Errorf("Resolve(\"\") = %q", got)
	}
}

func TestSlogLevelDefault(t *testing.T) {
	if got := (LogConfig{Level: "chatty"}).SlogLevel(); got != slog.LevelInfo {
		t.Errorf("SlogLevel = %v, want info", got)
	}
}
