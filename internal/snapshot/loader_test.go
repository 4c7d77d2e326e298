package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/theirongolddev/tripwidget/internal/backend"
)

type fakeHandle struct {
	batch backend.Batch
	err   error
	panic bool
}

func (f fakeHandle) Source() string { return "fake" }
func (f fakeHandle) Close() error   { return nil }

func (f fakeHandle) Read(context.Context) (backend.Batch, error) {
	if f.panic {
		panic("torn page")
	}
	return f.batch, f.err
}

func load(recs ...backend.Record) LoadResult {
	return Load(context.Background(), fakeHandle{batch: backend.Batch{Trips: recs}})
}

func valid(id string) backend.Record {
	return backend.Record{
		"id":          id,
		"name":        "Trip " + id,
		"startEpoch":  float64(1784000000),
		"endEpoch":    float64(1784000000 + 4*86400),
		"destination": "Lisbon",
		"budget":      1000.0,
	}
}

func TestLoadValidRecord(t *testing.T) {
	res := load(valid("a"))
	if res.Dropped != 0 || len(res.Trips) != 1 {
		t.Fatalf("dropped=%d trips=%d, want 0 and 1", res.Dropped, len(res.Trips))
	}
	s := res.Trips[0]
	if s.Name != "Trip a" || s.Destination != "Lisbon" {
		t.Errorf("name/destination = %q/%q", s.Name, s.Destination)
	}
	if s.Category != DefaultCategory {
		t.Errorf("Category = %q, want %q", s.Category, DefaultCategory)
	}
	if s.Budget == nil || *s.Budget != 1000 {
		t.Errorf("Budget = %v, want 1000", s.Budget)
	}
	if s.DurationDays != 4 {
		t.Errorf("DurationDays = %d, want 4 (whole days between start and end)", s.DurationDays)
	}
	if !s.Start.Equal(time.Unix(1784000000, 0)) {
		t.Errorf("Start = %v", s.Start)
	}
}

// A record missing its id is dropped while its neighbours load.
func TestLoadDropsRecordMissingID(t *testing.T) {
	bad := valid("x")
	delete(bad, "id")

	res := load(valid("a"), bad, valid("b"))
	if len(res.Trips) != 2 {
		t.Fatalf("len(Trips) = %d, want 2", len(res.Trips))
	}
	if res.Dropped != 1 {
		t.Fatalf("Dropped = %d, want 1", res.Dropped)
	}
	var re *RecordError
	if !errors.As(res.Errors[0], &re) || re.Field != "id" || re.Index != 1 {
		t.Errorf("error = %v, want RecordError on id at index 1", res.Errors[0])
	}
}

func TestLoadFieldPolicy(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(backend.Record)
		drop   bool
		check  func(t *testing.T, r LoadResult)
	}{
		{
			name:   "empty name dropped",
			mutate: func(r backend.Record) { r["name"] = "   " },
			drop:   true,
		},
		{
			name:   "missing start dropped",
			mutate: func(r backend.Record) { delete(r, "startEpoch") },
			drop:   true,
		},
		{
			name:   "end before start dropped",
			mutate: func(r backend.Record) { r["endEpoch"] = float64(1783000000) },
			drop:   true,
		},
		{
			name:   "garbage start dropped",
			mutate: func(r backend.Record) { r["startEpoch"] = "next tuesday" },
			drop:   true,
		},
		{
			name:   "non-string id dropped",
			mutate: func(r backend.Record) { r["id"] = 42.0 },
			drop:   true,
		},
		{
			name: "date aliases accepted",
			mutate: func(r backend.Record) {
				delete(r, "startEpoch")
				delete(r, "endEpoch")
				r["startDate"] = "2026-07-01T00:00:00Z"
				r["endDate"] = json.Number("1783123200")
			},
			check: func(t *testing.T, r LoadResult) {
				want := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
				if got := r.Trips[0].Start; !got.Equal(want) {
					t.Errorf("Start = %v, want %v", got, want)
				}
			},
		},
		{
			name:   "numeric string epoch",
			mutate: func(r backend.Record) { r["startEpoch"] = "1784000000.5" },
			check: func(t *testing.T, r LoadResult) {
				if got := r.Trips[0].Start.Nanosecond(); got != 500_000_000 {
					t.Errorf("Start nanos = %d, want 500000000", got)
				}
			},
		},
		{
			name:   "null budget is nil",
			mutate: func(r backend.Record) { r["budget"] = nil },
			check: func(t *testing.T, r LoadResult) {
				if r.Trips[0].Budget != nil {
					t.Errorf("Budget = %v, want nil", *r.Trips[0].Budget)
				}
			},
		},
		{
			name:   "negative budget is nil",
			mutate: func(r backend.Record) { r["budget"] = -5.0 },
			check: func(t *testing.T, r LoadResult) {
				if r.Trips[0].Budget != nil {
					t.Errorf("Budget = %v, want nil", *r.Trips[0].Budget)
				}
			},
		},
		{
			name:   "invalid budget is nil",
			mutate: func(r backend.Record) { r["budget"] = "lots" },
			check: func(t *testing.T, r LoadResult) {
				if r.Trips[0].Budget != nil {
					t.Errorf("Budget = %v, want nil", *r.Trips[0].Budget)
				}
			},
		},
		{
			name:   "zero budget kept",
			mutate: func(r backend.Record) { r["budget"] = int64(0) },
			check: func(t *testing.T, r LoadResult) {
				if b := r.Trips[0].Budget; b == nil || *b != 0 {
					t.Errorf("Budget = %v, want 0", b)
				}
			},
		},
		{
			name:   "negative expenses clamp to zero",
			mutate: func(r backend.Record) { r["totalExpenses"] = -12.0 },
			check: func(t *testing.T, r LoadResult) {
				if got := r.Trips[0].TotalExpenses; got != 0 {
					t.Errorf("TotalExpenses = %v, want 0", got)
				}
			},
		},
		{
			name:   "explicit duration wins",
			mutate: func(r backend.Record) { r["duration"] = int64(9) },
			check: func(t *testing.T, r LoadResult) {
				if got := r.Trips[0].DurationDays; got != 9 {
					t.Errorf("DurationDays = %d, want 9", got)
				}
			},
		},
		{
			name: "unknown fields ignored",
			mutate: func(r backend.Record) {
				r["notes"] = []any{"x"}
				r["category"] = "Business"
			},
			check: func(t *testing.T, r LoadResult) {
				if got := r.Trips[0].Category; got != "Business" {
					t.Errorf("Category = %q, want Business", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := valid("a")
			tt.mutate(rec)
			res := load(rec)
			if tt.drop {
				if res.Dropped != 1 || len(res.Trips) != 0 {
					t.Fatalf("dropped=%d trips=%d, want 1 and 0", res.Dropped, len(res.Trips))
				}
				return
			}
			if res.Dropped != 0 || len(res.Trips) != 1 {
				t.Fatalf("dropped=%d trips=%d, want 0 and 1 (errors %v)", res.Dropped, len(res.Trips), res.Errors)
			}
			tt.check(t, res)
		})
	}
}

func TestLoadNonObjectRecord(t *testing.T) {
	res := load(nil, valid("a"))
	if res.Dropped != 1 || len(res.Trips) != 1 {
		t.Fatalf("dropped=%d trips=%d, want 1 and 1", res.Dropped, len(res.Trips))
	}
}

func TestLoadDuplicateIDLastWins(t *testing.T) {
	first := valid("a")
	second := valid("a")
	second["name"] = "Renamed"

	res := load(first, valid("b"), second)
	if len(res.Trips) != 2 {
		t.Fatalf("len(Trips) = %d, want 2", len(res.Trips))
	}
	for _, s := range res.Trips {
		if s.ID == "a" && s.Name != "Renamed" {
			t.Errorf("duplicate kept %q, want the later record", s.Name)
		}
	}
}

func TestLoadCanonicalUUID(t *testing.T) {
	upper := valid("6BA7B810-9DAD-11D1-80B4-00C04FD430C8")
	lower := valid("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	res := load(upper, lower)
	if len(res.Trips) != 1 {
		t.Fatalf("len(Trips) = %d, want 1 after canonicalization", len(res.Trips))
	}
	if got := res.Trips[0].ID; got != "6ba7b810-9dad-11d1-80b4-00c04fd430c8" {
		t.Errorf("ID = %q", got)
	}
}

func TestLoadExpenseSideTable(t *testing.T) {
	rec := valid("a")
	h := fakeHandle{batch: backend.Batch{
		Trips: []backend.Record{rec, valid("b")},
		Expenses: []backend.Record{
			{"id": "a", "totalExpenses": 30.0},
			{"tripId": "a", "amount": json.Number("12.5")},
			{"id": "b"},
			nil,
		},
	}}
	res := Load(context.Background(), h)
	if got := res.Trips[0].TotalExpenses; got != 42.5 {
		t.Errorf("a TotalExpenses = %v, want 42.5", got)
	}
	if got := res.Trips[1].TotalExpenses; got != 0 {
		t.Errorf("b TotalExpenses = %v, want 0", got)
	}
}

func TestLoadStaleRead(t *testing.T) {
	res := Load(context.Background(), fakeHandle{err: errors.New("unexpected EOF")})
	if !res.Stale {
		t.Fatal("Stale = false, want true")
	}
	if res.Trips == nil || len(res.Trips) != 0 {
		t.Errorf("Trips = %v, want empty non-nil", res.Trips)
	}
	if len(res.Errors) != 1 || !errors.Is(res.Errors[0], ErrStaleRead) {
		t.Errorf("Errors = %v, want ErrStaleRead", res.Errors)
	}
}

func TestLoadRecoversPanic(t *testing.T) {
	res := Load(context.Background(), fakeHandle{panic: true})
	if !res.Stale || len(res.Trips) != 0 {
		t.Fatalf("res = %+v, want stale and empty", res)
	}
}

func TestLoadEmpty(t *testing.T) {
	res := load()
	if res.Trips == nil || len(res.Trips) != 0 || res.Stale {
		t.Fatalf("res = %+v, want empty non-stale", res)
	}
}
