package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/tripwidget/internal/model"
	"github.com/theirongolddev/tripwidget/internal/tui/theme"
)

// BudgetBar renders budget use as a labeled bar. Trips without a budget get a
// muted note instead.
func BudgetBar(bs model.BudgetStats, width int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted)
	if bs.Budget == nil {
		return muted.Render("No budget set")
	}

	color := t.BudgetColor(bs.PercentUsed, bs.Overrun)
	return labeledBar("Budget", bs.PercentUsed/100, color, width)
}

// TripProgressBar renders how far through the trip the current day is.
func TripProgressBar(v model.DerivedTripView, width int) string {
	return labeledBar("Trip", v.Progress, theme.Active.StatusColor(v.Status), width)
}

func labeledBar(label string, frac float64, color lipgloss.Color, width int) string {
	t := theme.Active
	frac = min(max(frac, 0), 1)

	labelW := 7
	barW := max(width-labelW-6, 4)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barW),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	pctStyle := lipgloss.NewStyle().Foreground(color).Bold(true)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		bar.ViewAs(frac) +
		" " +
		pctStyle.Render(fmt.Sprintf("%3.0f%%", frac*100))
}

// Countdown renders the wait until the next refresh.
func Countdown(d time.Duration) string {
	if d <= 0 {
		return "now"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h >= 24 {
		return fmt.Sprintf("%dd %dh", h/24, h%24)
	}
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
