package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/tripwidget/internal/model"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorBlue      = lipgloss.Color("#4385BE")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	okStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	dayStyle = lipgloss.NewStyle().
			Foreground(ColorBlue)

	overStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	// Calculate column widths
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			if len(h) > widths[i] {
				widths[i] = len(h)
			}
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if i < numCols && len(cell) > widths[i] {
					widths[i] = len(cell)
				}
			}
		}
	}

	var b strings.Builder

	// Title above table if present
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	// Top border
	b.WriteString(dimStyle.Render("╭"))
	for i, w := range widths {
		b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
		if i < numCols-1 {
			b.WriteString(dimStyle.Render("┬"))
		}
	}
	b.WriteString(dimStyle.Render("╮"))
	b.WriteString("\n")

	// Header row
	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			w := widths[i]
			padded := fmt.Sprintf(" %-*s ", w, h)
			b.WriteString(headerStyle.Render(padded))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")

		// Header separator
		b.WriteString(dimStyle.Render("├"))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("┼"))
			}
		}
		b.WriteString(dimStyle.Render("┤"))
		b.WriteString("\n")
	}

	// Data rows
	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			// Separator row
			b.WriteString(dimStyle.Render("├"))
			for i, w := range widths {
				b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
				if i < numCols-1 {
					b.WriteString(dimStyle.Render("┼"))
				}
			}
			b.WriteString(dimStyle.Render("┤"))
			b.WriteString("\n")
			continue
		}

		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			w := widths[i]
			cell := ""
			if i < len(row) {
				cell = row[i]
			}

			// Right-align numeric columns (all except first)
			var padded string
			if i == 0 {
				padded = fmt.Sprintf(" %-*s ", w, cell)
			} else {
				padded = fmt.Sprintf(" %*s ", w, cell)
			}
			b.WriteString(valueStyle.Render(padded))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	// Bottom border
	b.WriteString(dimStyle.Render("╰"))
	for i, w := range widths {
		b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
		if i < numCols-1 {
			b.WriteString(dimStyle.Render("┴"))
		}
	}
	b.WriteString(dimStyle.Render("╯"))
	b.WriteString("\n")

	return b.String()
}

// RenderProgressBar renders a fraction in [0,1] as a text bar.
func RenderProgressBar(frac float64, width int) string {
	if width <= 0 {
		return ""
	}
	frac = min(max(frac, 0), 1)
	filled := min(int(frac*float64(width)+0.5), width)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return mutedStyle.Render(bar)
}

// RenderDisplayState renders the widget for one tick: the selected trip card,
// its budget table and a footer with the channel and next refresh.
func RenderDisplayState(st model.DisplayState, loc *time.Location) string {
	var b strings.Builder

	if !st.Available {
		b.WriteString(RenderTitle("No trips"))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("  Nothing has been shared from the trips app yet."))
		b.WriteString("\n")
		b.WriteString(renderFooter(st))
		return b.String()
	}

	v := st.SelectedTrip
	if v == nil {
		b.WriteString(RenderTitle("No trips"))
		b.WriteString("\n")
		if st.Stale {
			b.WriteString(warnStyle.Render("  The trip export is being updated. Trying again shortly."))
		} else {
			b.WriteString(mutedStyle.Render("  Plan a trip to see it here."))
		}
		b.WriteString("\n")
		b.WriteString(renderFooter(st))
		return b.String()
	}

	b.WriteString(RenderTitle(v.Name))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s  %s\n",
		valueStyle.Render(FormatDestination(v.Destination)),
		mutedStyle.Render(v.Category))
	fmt.Fprintf(&b, "  %s\n", mutedStyle.Render(FormatDateRange(v.Start, v.End, loc)))
	b.WriteString("\n")

	switch v.Status {
	case model.StatusUpcoming:
		fmt.Fprintf(&b, "  %s  %s\n", headerStyle.Render("Upcoming"), dayStyle.Render(FormatDaysUntil(v.DaysUntil)))
	case model.StatusActive:
		day := 0
		if v.CurrentDay != nil {
			day = *v.CurrentDay
		}
		fmt.Fprintf(&b, "  %s  %s\n", headerStyle.Render("Active"), dayStyle.Render(FormatTripDay(day, v.TotalDays)))
		fmt.Fprintf(&b, "  %s %s\n", RenderProgressBar(v.Progress, 30), mutedStyle.Render(FormatPercent(v.Progress*100)))
	default:
		fmt.Fprintf(&b, "  %s  %s\n", mutedStyle.Render("Completed"), mutedStyle.Render(fmt.Sprintf("%d days", v.TotalDays)))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "  %s\n", RenderBudgetStatus(v.Budget))
	b.WriteString(RenderTable(budgetTable(*v)))
	b.WriteString(renderFooter(st))
	return b.String()
}

func budgetTable(v model.DerivedTripView) Table {
	bs := v.Budget
	t := Table{
		Title:   "Budget",
		Headers: []string{"", "Amount"},
	}
	if bs.Budget == nil {
		t.Rows = [][]string{{"Spent", FormatMoney(bs.Spent)}, {"Budget", "not set"}}
		return t
	}

	t.Rows = [][]string{
		{"Budget", FormatMoney(*bs.Budget)},
		{"Spent", FormatMoney(bs.Spent)},
		{"Remaining", FormatMoney(*bs.Remaining)},
		{"Used", FormatPercent(bs.PercentUsed)},
	}
	if bs.Overrun > 0 {
		t.Rows = append(t.Rows, []string{"Over budget", FormatMoney(bs.Overrun)})
	}
	if v.Status == model.StatusActive && v.Burn.DailyBurn > 0 {
		t.Rows = append(t.Rows,
			[]string{"---"},
			[]string{"Per day", FormatMoney(v.Burn.DailyBurn)},
			[]string{"Projected", FormatMoney(v.Burn.ProjectedSpend)},
		)
	}
	return t
}

// RenderStats renders the all-trips summary.
func RenderStats(s model.TripStats) string {
	return RenderTable(Table{
		Title:   "All trips",
		Headers: []string{"", "Count"},
		Rows: [][]string{
			{"Total", FormatNumber(int64(s.TotalTrips))},
			{"Active", FormatNumber(int64(s.Active))},
			{"Upcoming", FormatNumber(int64(s.Upcoming))},
			{"Past", FormatNumber(int64(s.Past))},
			{"---"},
			{"Spent", FormatMoney(s.TotalSpent)},
			{"Budgeted", FormatMoney(s.TotalBudget)},
		},
	})
}

// RenderBudgetStatus is a one-word budget verdict with color.
func RenderBudgetStatus(bs model.BudgetStats) string {
	switch {
	case bs.Budget == nil:
		return mutedStyle.Render("no budget")
	case bs.Overrun > 0:
		return overStyle.Render("over budget")
	case bs.PercentUsed >= 80:
		return warnStyle.Render("nearly spent")
	default:
		return okStyle.Render("on track")
	}
}

func renderFooter(st model.DisplayState) string {
	parts := []string{}
	if st.Source != "" {
		parts = append(parts, "from "+st.Source)
	}
	if !st.SyncedAt.IsZero() {
		parts = append(parts, "synced "+FormatAgo(st.SyncedAt, st.ComputedAt))
	}
	if st.Dropped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", st.Dropped))
	}
	parts = append(parts, "next refresh in "+FormatDuration(st.NextRefreshHint))
	return dimStyle.Render("  "+strings.Join(parts, " · ")) + "\n"
}
