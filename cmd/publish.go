package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripwidget/internal/config"
	"github.com/theirongolddev/tripwidget/internal/publish"
)

var flagPublishTo []string

var publishCmd = &cobra.Command{
	Use:   "publish TRIPS.toml",
	Short: "Export trips from a TOML file to the shared channels, as the trips app would",
	Args:  cobra.ExactArgs(1),
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().StringSliceVar(&flagPublishTo, "to",
		[]string{config.ChannelFile}, "Channels to write: database, register, file")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg.Log, os.Stderr)

	recs, err := publish.ReadTrips(args[0])
	if err != nil {
		return err
	}
	snaps := publish.FromRecords(recs)
	now := time.Now()
	ch := cfg.Channels

	for _, name := range flagPublishTo {
		var (
			path string
			err  error
		)
		switch name {
		case config.ChannelDatabase:
			path = ch.Resolve(ch.Database)
			err = publish.WriteStore(cmd.Context(), path, snaps, now)
		case config.ChannelRegister:
			path = ch.Resolve(ch.Register)
			err = publish.WriteRegister(path, ch.TripsKey, snaps, now)
		case config.ChannelFile:
			if len(ch.Files) == 0 {
				return fmt.Errorf("no export file configured")
			}
			path = ch.Resolve(ch.Files[0])
			err = publish.WriteFile(path, snaps, now)
		default:
			return fmt.Errorf("unknown channel %q", name)
		}
		if err != nil {
			return fmt.Errorf("publishing to %s: %w", name, err)
		}
		log.Debug("published", "channel", name, "path", path, "trips", len(snaps))
		fmt.Printf("  Wrote %d trips to %s (%s)\n", len(snaps), name, path)
	}
	return nil
}
