// Package tui provides the live widget preview: a bubbletea program that
// renders the display state and re-asks for it when the refresh hint expires.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/tripwidget/internal/cli"
	"github.com/theirongolddev/tripwidget/internal/model"
	"github.com/theirongolddev/tripwidget/internal/tui/components"
	"github.com/theirongolddev/tripwidget/internal/tui/theme"
)

// StateSource computes one display state. *refresh.Scheduler implements it.
type StateSource interface {
	DisplayState(ctx context.Context, now time.Time) model.DisplayState
}

const (
	minWidth     = 48
	maxCardWidth = 72
)

// StateMsg carries a freshly computed display state.
type StateMsg struct {
	State model.DisplayState
	Gen   int
}

type refreshMsg struct{ gen int }

type tickMsg struct{}

// App is the preview model.
type App struct {
	src StateSource
	now func() time.Time
	loc *time.Location

	width  int
	height int

	loaded  bool
	state   model.DisplayState
	nextAt  time.Time
	gen     int // bumps on every request so stale timers are ignored
	spinner spinner.Model
}

// NewApp returns a preview over src. now and loc default to the wall clock and
// local zone.
func NewApp(src StateSource, now func() time.Time, loc *time.Location) App {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	return App{src: src, now: now, loc: loc, spinner: sp}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.computeCmd(a.gen), tickCmd())
}

func (a App) computeCmd(gen int) tea.Cmd {
	src, now := a.src, a.now
	return func() tea.Msg {
		return StateMsg{State: src.DisplayState(context.Background(), now()), Gen: gen}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return a, tea.Quit
		case "r":
			a.gen++
			return a, a.computeCmd(a.gen)
		}
		return a, nil

	case StateMsg:
		if msg.Gen != a.gen {
			return a, nil
		}
		a.loaded = true
		a.state = msg.State
		a.nextAt = a.now().Add(msg.State.NextRefreshHint)
		gen := a.gen
		return a, tea.Tick(msg.State.NextRefreshHint, func(time.Time) tea.Msg {
			return refreshMsg{gen: gen}
		})

	case refreshMsg:
		if msg.gen != a.gen {
			return a, nil
		}
		a.gen++
		return a, a.computeCmd(a.gen)

	case tickMsg:
		return a, tickCmd()

	case spinner.TickMsg:
		if a.loaded {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minWidth {
		return lipgloss.NewStyle().Foreground(theme.Active.TextMuted).
			Render(fmt.Sprintf("  Terminal too narrow (%d < %d)", a.width, minWidth))
	}
	if !a.loaded {
		return "\n  " + a.spinner.View() + " Reading trips..."
	}

	w := min(a.width, maxCardWidth)
	body := a.viewWidget(w)
	bar := components.RenderStatusBar(a.width, a.statusRight())

	if a.height > 0 {
		lines := strings.Count(body, "\n") + 1
		if pad := a.height - lines - 1; pad > 0 {
			body += strings.Repeat("\n", pad)
		}
	}
	return body + "\n" + bar
}

func (a App) viewWidget(w int) string {
	t := theme.Active
	st := a.state
	muted := lipgloss.NewStyle().Foreground(t.TextMuted)

	v := st.SelectedTrip
	if v == nil {
		msg := "Plan a trip to see it here."
		switch {
		case !st.Available:
			msg = "Nothing has been shared from the trips app yet."
		case st.Stale:
			msg = "The trip export is being updated. Trying again shortly."
		}
		return components.ContentCard("No trips", muted.Render(msg), w)
	}

	inner := components.CardInnerWidth(w)
	header := lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true).Render(v.Name) + "\n" +
		muted.Render(cli.FormatDestination(v.Destination)+"  ·  "+cli.FormatDateRange(v.Start, v.End, a.loc))

	sections := []string{
		components.ContentCard(statusLabel(*v), header, w),
		components.MetricCardRow(metrics(*v), w),
	}

	bars := components.BudgetBar(v.Budget, inner)
	if v.Status == model.StatusActive {
		bars = components.TripProgressBar(*v, inner) + "\n" + bars
	}
	sections = append(sections, components.ContentCard("", bars, w))

	s := st.Stats
	sections = append(sections, muted.Render(fmt.Sprintf("  %d trips  ·  %d active  ·  %d upcoming  ·  %s spent",
		s.TotalTrips, s.Active, s.Upcoming, cli.FormatMoney(s.TotalSpent))))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func statusLabel(v model.DerivedTripView) string {
	switch v.Status {
	case model.StatusUpcoming:
		return "Upcoming"
	case model.StatusActive:
		return "Active"
	default:
		return "Completed"
	}
}

func metrics(v model.DerivedTripView) []components.Metric {
	t := theme.Active
	bs := v.Budget

	var when components.Metric
	switch v.Status {
	case model.StatusUpcoming:
		when = components.Metric{Label: "Starts", Value: cli.FormatDaysUntil(v.DaysUntil), Color: t.StatusColor(v.Status)}
	case model.StatusActive:
		day := 0
		if v.CurrentDay != nil {
			day = *v.CurrentDay
		}
		when = components.Metric{Label: "Today", Value: cli.FormatTripDay(day, v.TotalDays), Color: t.StatusColor(v.Status)}
	default:
		when = components.Metric{Label: "Length", Value: fmt.Sprintf("%d days", v.TotalDays)}
	}

	spent := components.Metric{Label: "Spent", Value: cli.FormatMoney(bs.Spent)}
	if v.Status == model.StatusActive && v.Burn.DailyBurn > 0 {
		spent.Hint = cli.FormatMoney(v.Burn.DailyBurn) + "/day"
	}

	if bs.Budget == nil {
		return []components.Metric{when, spent}
	}

	left := components.Metric{
		Label: "Remaining",
		Value: cli.FormatMoney(*bs.Remaining),
		Color: t.BudgetColor(bs.PercentUsed, bs.Overrun),
	}
	if bs.Overrun > 0 {
		left.Hint = "over by " + cli.FormatMoney(bs.Overrun)
	} else if v.Burn.ProjectedOverrun > 0 {
		left.Hint = "on pace to exceed"
	}
	return []components.Metric{when, spent, left}
}

func (a App) statusRight() string {
	st := a.state
	parts := []string{}
	if st.Source != "" {
		parts = append(parts, st.Source)
	}
	if st.Dropped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", st.Dropped))
	}
	parts = append(parts, "next "+components.Countdown(a.nextAt.Sub(a.now())))
	return strings.Join(parts, "  ")
}
