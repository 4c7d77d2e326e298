package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/tripwidget/internal/model"
	"github.com/theirongolddev/tripwidget/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRowSumsToTotal(t *testing.T) {
	for total := 10; total < 40; total++ {
		for n := 1; n <= 5; n++ {
			sum := 0
			for _, w := range LayoutRow(total, n) {
				sum += w
			}
			if sum != total {
				t.Fatalf("LayoutRow(%d, %d) sums to %d", total, n, sum)
			}
		}
	}
	if LayoutRow(10, 0) != nil {
		t.Error("LayoutRow(10, 0) should be nil")
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	theme.SetActive("flexoki-dark")

	row := MetricCardRow([]Metric{
		{Label: "Spent", Value: "1,200"},
		{Label: "Remaining", Value: "0.00", Hint: "over by 200", Color: theme.Active.Red},
		{Label: "Day", Value: "3 of 7"},
	}, 61)

	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 61 {
			t.Errorf("line %d width = %d, want 61", i, w)
		}
	}
}

func TestBudgetBarWithoutBudget(t *testing.T) {
	out := BudgetBar(model.BudgetStats{Spent: 12}, 40)
	if !strings.Contains(out, "No budget set") {
		t.Errorf("BudgetBar = %q", out)
	}
}

func TestBudgetBarClampsOverrun(t *testing.T) {
	b := 100.0
	out := BudgetBar(model.BudgetStats{Budget: &b, Spent: 150, PercentUsed: 100, Overrun: 50}, 40)
	if !strings.Contains(out, "100%") {
		t.Errorf("BudgetBar = %q, want 100%%", out)
	}
}

func TestCountdown(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{-time.Second, "now"},
		{42 * time.Second, "42s"},
		{14*time.Minute + 5*time.Second, "14m 05s"},
		{90 * time.Minute, "1h 30m"},
		{50 * time.Hour, "2d 2h"},
	}
	for _, tt := range tests {
		if got := Countdown(tt.in); got != tt.want {
			t.Errorf("Countdown(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatusBarWidth(t *testing.T) {
	if w := lipgloss.Width(RenderStatusBar(50, "next in 5m")); w != 50 {
		t.Errorf("status bar width = %d, want 50", w)
	}
}
