package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/tripwidget/internal/config"
	"github.com/theirongolddev/tripwidget/internal/tui/theme"
)

// SetupValues are the fields the setup form edits.
type SetupValues struct {
	ContainerDir string
	Mode         string
	TripID       string
	Interval     string
	Theme        string
}

// SetupValuesFrom seeds the form from an existing config.
func SetupValuesFrom(cfg config.Config) SetupValues {
	return SetupValues{
		ContainerDir: cfg.Channels.ContainerDir,
		Mode:         cfg.Display.Mode,
		TripID:       cfg.Display.TripID,
		Interval:     cfg.Refresh.Interval.String(),
		Theme:        cfg.Appearance.Theme,
	}
}

// Apply writes the form values back into cfg.
func (v SetupValues) Apply(cfg *config.Config) error {
	if dir := strings.TrimSpace(v.ContainerDir); dir != "" {
		cfg.Channels.ContainerDir = dir
	}
	cfg.Display.Mode = v.Mode
	cfg.Display.TripID = strings.TrimSpace(v.TripID)
	if v.Mode != "pinned" {
		cfg.Display.TripID = ""
	}
	if s := strings.TrimSpace(v.Interval); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("refresh interval: %w", err)
		}
		cfg.Refresh.Interval = config.Duration{Duration: d}
	}
	if v.Theme != "" {
		cfg.Appearance.Theme = v.Theme
	}
	return nil
}

// NewSetupForm builds the first-run form bound to vals.
func NewSetupForm(vals *SetupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Shared container directory").
				Description("Where the trips app exports its data.").
				Value(&vals.ContainerDir),
			huh.NewSelect[string]().
				Title("Which trip should the widget show?").
				Options(
					huh.NewOption("Most relevant (active, then upcoming)", "auto"),
					huh.NewOption("Active trips only", "active"),
					huh.NewOption("Upcoming trips only", "upcoming"),
					huh.NewOption("A specific trip", "pinned"),
				).
				Value(&vals.Mode),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Pinned trip id").
				Description("Leave blank unless you chose a specific trip.").
				Value(&vals.TripID),
			huh.NewInput().
				Title("Refresh interval").
				Placeholder("1h").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					_, err := time.ParseDuration(strings.TrimSpace(s))
					return err
				}).
				Value(&vals.Interval),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
		),
	)
}
