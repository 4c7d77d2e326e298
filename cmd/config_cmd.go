package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripwidget/internal/backend"
	"github.com/theirongolddev/tripwidget/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration and which channels exist",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := flagConfig
	if path == "" {
		path = config.Path()
	}
	fmt.Printf("  Config file: %s\n", path)
	if _, err := os.Stat(path); err == nil {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Channels]")
	fmt.Printf("    Container: %s\n", cfg.Channels.ContainerDir)
	fmt.Printf("    Order:     %s\n", strings.Join(cfg.Channels.Order, ", "))
	backends, err := backend.FromConfig(cfg.Channels)
	if err != nil {
		fmt.Printf("    Error:     %v\n", err)
	}
	for _, b := range backends {
		fmt.Printf("    %-9s  %s  %s\n", b.Name(), channelPath(b), channelPresence(b))
	}
	fmt.Println()

	fmt.Println("  [Refresh]")
	fmt.Printf("    Interval:     %s\n", cfg.Refresh.Interval)
	fmt.Printf("    Backoff:      %s\n", cfg.Refresh.Backoff)
	fmt.Printf("    Min interval: %s\n", cfg.Refresh.MinInterval)
	fmt.Println()

	fmt.Println("  [Display]")
	fmt.Printf("    Mode: %s\n", cfg.Display.Mode)
	if cfg.Display.TripID != "" {
		fmt.Printf("    Trip: %s\n", cfg.Display.TripID)
	}
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address: %s\n", cfg.Daemon.Addr)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `tripwidget setup` to reconfigure.")
	return nil
}

func channelPath(b backend.Backend) string {
	switch v := b.(type) {
	case backend.Database:
		return v.Path
	case backend.Register:
		return v.Path
	case backend.File:
		return v.Path
	default:
		return ""
	}
}

func channelPresence(b backend.Backend) string {
	p := channelPath(b)
	if p == "" {
		return "(not configured)"
	}
	if _, err := os.Stat(p); err != nil {
		return "(missing)"
	}
	return "(present)"
}
