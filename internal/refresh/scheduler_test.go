package refresh

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/tripwidget/internal/backend"
	"github.com/theirongolddev/tripwidget/internal/model"
	"github.com/theirongolddev/tripwidget/internal/pipeline"
)

var refNow = time.Date(2026, 7, 10, 9, 30, 0, 0, time.UTC)

type wireTrip struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	StartEpoch    int64    `json:"startEpoch"`
	EndEpoch      int64    `json:"endEpoch"`
	Budget        *float64 `json:"budget"`
	TotalExpenses float64  `json:"totalExpenses"`
	DurationDays  int      `json:"durationDays"`
}

func exportFile(t *testing.T, trips ...wireTrip) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{"trips": trips, "lastSync": refNow.Add(-time.Hour).Unix()})
	if err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(t.TempDir(), "widget_data.json")
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func fileScheduler(path string, opts Options) *Scheduler {
	return New(backend.NewResolver(nil, backend.File{Path: path}), opts)
}

func TestDisplayState_NoChannel(t *testing.T) {
	s := New(backend.NewResolver(nil, backend.File{Path: filepath.Join(t.TempDir(), "missing.json")}), Options{})

	st := s.DisplayState(context.Background(), refNow)
	if st.Available {
		t.Error("Available = true, want false")
	}
	if st.SelectedTrip != nil {
		t.Errorf("SelectedTrip = %+v, want nil", st.SelectedTrip)
	}
	if st.NextRefreshHint != DefaultBackoff {
		t.Errorf("NextRefreshHint = %v, want %v", st.NextRefreshHint, DefaultBackoff)
	}
	if !st.ComputedAt.Equal(refNow) {
		t.Errorf("ComputedAt = %v, want %v", st.ComputedAt, refNow)
	}
}

func TestDisplayState_NilResolverRecovers(t *testing.T) {
	s := New(nil, Options{Backoff: 5 * time.Minute})
	st := s.DisplayState(context.Background(), refNow)
	if st.Available || st.NextRefreshHint != 5*time.Minute {
		t.Errorf("st = %+v, want unavailable with 5m backoff", st)
	}
}

func TestDisplayState_StaleRead(t *testing.T) {
	p := filepath.Join(t.TempDir(), "widget_data.json")
	if err := os.WriteFile(p, []byte(`{"trips":[{"id":`), 0o600); err != nil {
		t.Fatal(err)
	}
	st := fileScheduler(p, Options{}).DisplayState(context.Background(), refNow)
	if !st.Available || !st.Stale {
		t.Fatalf("Available=%v Stale=%v, want both true", st.Available, st.Stale)
	}
	if st.SelectedTrip != nil {
		t.Error("SelectedTrip set on stale read")
	}
	if st.NextRefreshHint != DefaultBackoff {
		t.Errorf("NextRefreshHint = %v, want %v", st.NextRefreshHint, DefaultBackoff)
	}
}

func TestDisplayState_ActiveTrip(t *testing.T) {
	budget := 1000.0
	start := refNow.Add(-2*pipeline.Day - time.Hour)
	p := exportFile(t,
		wireTrip{ID: "a", Name: "Lisbon", StartEpoch: start.Unix(), EndEpoch: start.Add(6 * pipeline.Day).Unix(), Budget: &budget, TotalExpenses: 1200, DurationDays: 7},
		wireTrip{ID: "b", Name: "Oslo", StartEpoch: refNow.Add(5 * pipeline.Day).Unix(), EndEpoch: refNow.Add(8 * pipeline.Day).Unix()},
		wireTrip{ID: "", Name: "broken"},
	)

	st := fileScheduler(p, Options{}).DisplayState(context.Background(), refNow)
	if !st.Available || st.Stale {
		t.Fatalf("Available=%v Stale=%v", st.Available, st.Stale)
	}
	v := st.SelectedTrip
	if v == nil || v.ID != "a" {
		t.Fatalf("SelectedTrip = %+v, want trip a", v)
	}
	if v.Status != model.StatusActive || *v.CurrentDay != 3 || v.TotalDays != 7 {
		t.Errorf("status=%v day=%d total=%d, want active 3/7", v.Status, *v.CurrentDay, v.TotalDays)
	}
	if v.Budget.Overrun != 200 || *v.Budget.Remaining != 0 {
		t.Errorf("budget = %+v", v.Budget)
	}
	if st.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", st.Dropped)
	}
	if st.Stats.TotalTrips != 2 || st.Stats.Active != 1 || st.Stats.Upcoming != 1 {
		t.Errorf("Stats = %+v", st.Stats)
	}
	if st.SyncedAt.IsZero() {
		t.Error("SyncedAt is zero")
	}
	// Next day boundary is 23h away, so the 1h interval stands.
	if st.NextRefreshHint != time.Hour {
		t.Errorf("NextRefreshHint = %v, want 1h", st.NextRefreshHint)
	}
}

func TestDisplayState_HintShortenedByStart(t *testing.T) {
	start := refNow.Add(20 * time.Minute)
	p := exportFile(t, wireTrip{ID: "a", Name: "Soon", StartEpoch: start.Unix(), EndEpoch: start.Add(pipeline.Day).Unix()})

	st := fileScheduler(p, Options{}).DisplayState(context.Background(), refNow)
	if st.NextRefreshHint != 20*time.Minute {
		t.Errorf("NextRefreshHint = %v, want 20m", st.NextRefreshHint)
	}
}

func TestDisplayState_HintFloor(t *testing.T) {
	start := refNow.Add(10 * time.Second)
	p := exportFile(t, wireTrip{ID: "a", Name: "Now", StartEpoch: start.Unix(), EndEpoch: start.Add(pipeline.Day).Unix()})

	st := fileScheduler(p, Options{MinInterval: 2 * time.Minute}).DisplayState(context.Background(), refNow)
	if st.NextRefreshHint != 2*time.Minute {
		t.Errorf("NextRefreshHint = %v, want 2m floor", st.NextRefreshHint)
	}
}

func TestDisplayState_PinnedSelection(t *testing.T) {
	start := refNow.Add(-time.Hour)
	p := exportFile(t,
		wireTrip{ID: "a", Name: "Active", StartEpoch: start.Unix(), EndEpoch: start.Add(3 * pipeline.Day).Unix()},
		wireTrip{ID: "b", Name: "Later", StartEpoch: refNow.Add(9 * pipeline.Day).Unix(), EndEpoch: refNow.Add(10 * pipeline.Day).Unix()},
	)
	opts := Options{Selection: pipeline.Selection{Mode: pipeline.ModePinned, TripID: "B"}}

	st := fileScheduler(p, opts).DisplayState(context.Background(), refNow)
	if st.SelectedTrip == nil || st.SelectedTrip.ID != "b" {
		t.Fatalf("SelectedTrip = %+v, want pinned trip b", st.SelectedTrip)
	}
}

func TestDisplayState_EmptyListIsNotAnError(t *testing.T) {
	p := exportFile(t)
	st := fileScheduler(p, Options{}).DisplayState(context.Background(), refNow)
	if !st.Available || st.Stale || st.SelectedTrip != nil {
		t.Errorf("st = %+v, want available, fresh, no trip", st)
	}
	if st.NextRefreshHint != DefaultInterval {
		t.Errorf("NextRefreshHint = %v, want %v", st.NextRefreshHint, DefaultInterval)
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{Interval: 30 * time.Second}.withDefaults()
	if o.MinInterval != 30*time.Second {
		t.Errorf("MinInterval = %v, want clamped to interval", o.MinInterval)
	}
	if o.Backoff != 30*time.Second {
		t.Errorf("Backoff = %v, want clamped to interval", o.Backoff)
	}
	if o.Logger == nil {
		t.Errorf("defaults not applied: %+v", o)
	}

	o = Options{}.withDefaults()
	if o.Backoff != DefaultBackoff {
		t.Errorf("Backoff = %v, want %v", o.Backoff, DefaultBackoff)
	}
}

func TestDisplayState_BackoffNeverExceedsInterval(t *testing.T) {
	s := New(backend.NewResolver(nil), Options{Interval: 5 * time.Minute})
	st := s.DisplayState(context.Background(), refNow)
	if st.Available {
		t.Fatal("Available = true with no channels")
	}
	if st.NextRefreshHint != 5*time.Minute {
		t.Errorf("NextRefreshHint = %v, want 5m", st.NextRefreshHint)
	}
}
