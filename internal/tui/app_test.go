package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theirongolddev/tripwidget/internal/config"
	"github.com/theirongolddev/tripwidget/internal/model"
)

var refNow = time.Date(2026, 7, 10, 9, 30, 0, 0, time.UTC)

type countingSource struct {
	calls int
	state model.DisplayState
}

func (c *countingSource) DisplayState(_ context.Context, now time.Time) model.DisplayState {
	c.calls++
	st := c.state
	st.ComputedAt = now
	return st
}

func clock() time.Time { return refNow }

func upcoming() model.DisplayState {
	b, r := 500.0, 500.0
	return model.DisplayState{
		Available:       true,
		Source:          "file:test",
		NextRefreshHint: 20 * time.Minute,
		SelectedTrip: &model.DerivedTripView{
			ID:        "a",
			Name:      "Oslo",
			Status:    model.StatusUpcoming,
			DaysUntil: 5,
			TotalDays: 3,
			Budget:    model.BudgetStats{Budget: &b, Remaining: &r},
		},
		Stats: model.TripStats{TotalTrips: 1, Upcoming: 1},
	}
}

func TestUpdateStateSchedulesRefresh(t *testing.T) {
	src := &countingSource{state: upcoming()}
	a := NewApp(src, clock, time.UTC)

	msg := a.computeCmd(a.gen)()
	m, cmd := a.Update(msg)
	a = m.(App)

	if !a.loaded {
		t.Fatal("loaded = false after StateMsg")
	}
	if cmd == nil {
		t.Fatal("expected a refresh timer command")
	}
	if !a.nextAt.Equal(refNow.Add(20 * time.Minute)) {
		t.Errorf("nextAt = %v", a.nextAt)
	}
	if src.calls != 1 {
		t.Errorf("calls = %d, want 1", src.calls)
	}
}

func TestStaleGenerationIgnored(t *testing.T) {
	a := NewApp(&countingSource{state: upcoming()}, clock, time.UTC)

	m, _ := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	a = m.(App)
	if a.gen != 1 {
		t.Fatalf("gen = %d, want 1 after manual refresh", a.gen)
	}

	m, cmd := a.Update(StateMsg{State: upcoming(), Gen: 0})
	a = m.(App)
	if a.loaded || cmd != nil {
		t.Error("state from an older request should be dropped")
	}

	m, cmd = a.Update(refreshMsg{gen: 0})
	if cmd != nil || m.(App).gen != 1 {
		t.Error("timer from an older request should be dropped")
	}
}

func TestQuitKeys(t *testing.T) {
	a := NewApp(&countingSource{}, clock, time.UTC)
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestViewRendersTrip(t *testing.T) {
	a := NewApp(&countingSource{}, clock, time.UTC)
	m, _ := a.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = m.(App).Update(StateMsg{State: upcoming()})

	out := m.(App).View()
	for _, want := range []string{"Oslo", "No destination", "in 5 days", "Remaining", "next 20m 00s"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
}

func TestViewEmptyState(t *testing.T) {
	a := NewApp(&countingSource{}, clock, time.UTC)
	m, _ := a.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = m.(App).Update(StateMsg{State: model.DisplayState{NextRefreshHint: 15 * time.Minute}})

	if out := m.(App).View(); !strings.Contains(out, "No trips") {
		t.Errorf("view missing empty state:\n%s", out)
	}
}

func TestViewTooNarrow(t *testing.T) {
	a := NewApp(&countingSource{}, clock, time.UTC)
	m, _ := a.Update(tea.WindowSizeMsg{Width: 30, Height: 10})
	if out := m.(App).View(); !strings.Contains(out, "too narrow") {
		t.Errorf("View = %q", out)
	}
}

func TestSetupValuesApply(t *testing.T) {
	cfg := config.DefaultConfig()
	vals := SetupValuesFrom(cfg)
	if vals.Interval != "1h0m0s" {
		t.Fatalf("Interval = %q", vals.Interval)
	}

	vals.Mode = "upcoming"
	vals.TripID = "ignored"
	vals.Interval = "30m"
	vals.ContainerDir = "/srv/group"
	if err := vals.Apply(&cfg); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if cfg.Display.Mode != "upcoming" || cfg.Display.TripID != "" {
		t.Errorf("Display = %+v", cfg.Display)
	}
	if cfg.Refresh.Interval.Duration != 30*time.Minute || cfg.Channels.ContainerDir != "/srv/group" {
		t.Errorf("cfg = %+v / %q", cfg.Refresh, cfg.Channels.ContainerDir)
	}

	vals.Interval = "soon"
	if err := vals.Apply(&cfg); err == nil {
		t.Error("expected error for bad interval")
	}
}

func TestNewSetupFormBuilds(t *testing.T) {
	vals := SetupValuesFrom(config.DefaultConfig())
	if NewSetupForm(&vals) == nil {
		t.Fatal("NewSetupForm returned nil")
	}
}
