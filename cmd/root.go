// Package cmd implements the tripwidget CLI commands.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripwidget/internal/backend"
	"github.com/theirongolddev/tripwidget/internal/config"
	"github.com/theirongolddev/tripwidget/internal/pipeline"
	"github.com/theirongolddev/tripwidget/internal/refresh"
)

var (
	flagConfig       string
	flagContainerDir string
	flagMode         string
	flagTripID       string
	flagNow          string
	flagVerbose      bool
	flagQuiet        bool
)

var rootCmd = &cobra.Command{
	Use:           "tripwidget",
	Short:         "Trip itinerary widget",
	Long:          "Show the most relevant trip from the shared trips export, the way the home-screen widget does.",
	RunE:          runState,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file (default "+config.Path()+")")
	rootCmd.PersistentFlags().StringVar(&flagContainerDir, "container-dir", "", "Shared container directory (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&flagMode, "mode", "m", "", "Display mode: auto, active, upcoming, pinned")
	rootCmd.PersistentFlags().StringVar(&flagTripID, "trip", "", "Trip id for pinned mode")
	rootCmd.PersistentFlags().StringVar(&flagNow, "now", "", "Evaluate at this RFC 3339 time instead of the clock")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log errors")
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (config.Config, error) {
	path := flagConfig
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return cfg, err
	}

	if flagContainerDir != "" {
		cfg.Channels.ContainerDir = flagContainerDir
	}
	if flagMode != "" {
		cfg.Display.Mode = flagMode
	}
	if flagTripID != "" {
		cfg.Display.TripID = flagTripID
		if flagMode == "" {
			cfg.Display.Mode = string(pipeline.ModePinned)
		}
	}
	switch {
	case flagVerbose:
		cfg.Log.Level = "debug"
	case flagQuiet:
		cfg.Log.Level = "error"
	}
	return cfg, nil
}

// newLogger builds the process logger from config.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// buildScheduler wires channels, loader and selection from config.
func buildScheduler(cfg config.Config, log *slog.Logger) (*refresh.Scheduler, error) {
	backends, err := backend.FromConfig(cfg.Channels)
	if err != nil {
		return nil, fmt.Errorf("configuring channels: %w", err)
	}

	return refresh.New(backend.NewResolver(log, backends...), refresh.Options{
		Selection: pipeline.Selection{
			Mode:   pipeline.ParseMode(cfg.Display.Mode),
			TripID: cfg.Display.TripID,
		},
		Interval:    cfg.Refresh.Interval.Duration,
		Backoff:     cfg.Refresh.Backoff.Duration,
		MinInterval: cfg.Refresh.MinInterval.Duration,
		Logger:      log,
	}), nil
}

// clock returns the evaluation time source, fixed when --now is set.
func clock() (func() time.Time, error) {
	if flagNow == "" {
		return time.Now, nil
	}
	at, err := time.Parse(time.RFC3339, flagNow)
	if err != nil {
		return nil, fmt.Errorf("parsing --now: %w", err)
	}
	return func() time.Time { return at }, nil
}

// setup loads config, logger, scheduler and clock for a run. Logs go to logOut.
func setup(logOut io.Writer) (config.Config, *slog.Logger, *refresh.Scheduler, func() time.Time, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, nil, nil, nil, err
	}
	log := newLogger(cfg.Log, logOut)
	sched, err := buildScheduler(cfg, log)
	if err != nil {
		return cfg, log, nil, nil, err
	}
	now, err := clock()
	if err != nil {
		return cfg, log, nil, nil, err
	}
	return cfg, log, sched, now, nil
}
