package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripwidget/internal/cli"
)

var (
	flagStateJSON  bool
	flagStateStats bool
	flagStateUTC   bool
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Compute and print the widget's display state once",
	RunE:  runState,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, stateCmd} {
		c.Flags().BoolVar(&flagStateJSON, "json", false, "Print the display state as JSON")
		c.Flags().BoolVar(&flagStateStats, "stats", false, "Include the all-trips summary")
		c.Flags().BoolVar(&flagStateUTC, "utc", false, "Show dates in UTC instead of local time")
	}
	rootCmd.AddCommand(stateCmd)
}

func runState(cmd *cobra.Command, _ []string) error {
	_, _, sched, now, err := setup(os.Stderr)
	if err != nil {
		return err
	}

	st := sched.DisplayState(cmd.Context(), now())

	if flagStateJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	loc := time.Local
	if flagStateUTC {
		loc = time.UTC
	}
	fmt.Println()
	fmt.Print(cli.RenderDisplayState(st, loc))
	if flagStateStats && st.Available {
		fmt.Println()
		fmt.Print(cli.RenderStats(st.Stats))
	}
	fmt.Println()
	return nil
}
