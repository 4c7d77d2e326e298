// Package publish is the producer side of the shared channels. It flattens trip
// records into snapshots and replaces each channel's export atomically, so a
// widget reading concurrently sees either the old export or the new one.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/theirongolddev/tripwidget/internal/backend"
	"github.com/theirongolddev/tripwidget/internal/model"
	"github.com/theirongolddev/tripwidget/internal/pipeline"
	"github.com/theirongolddev/tripwidget/internal/snapshot"
	"github.com/theirongolddev/tripwidget/internal/store"
)

// WireRecord is one trip as written to the register and file channels.
type WireRecord struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	StartEpoch    float64  `json:"startEpoch"`
	EndEpoch      float64  `json:"endEpoch"`
	Destination   string   `json:"destination"`
	Budget        *float64 `json:"budget"`
	TotalExpenses float64  `json:"totalExpenses"`
	Category      string   `json:"category"`
	DurationDays  int      `json:"durationDays"`
}

type expenseTotal struct {
	ID            string  `json:"id"`
	TotalExpenses float64 `json:"totalExpenses"`
}

type tripsFile struct {
	Trips []model.TripRecord `toml:"trip"`
}

// ReadTrips parses a TOML file of [[trip]] tables.
func ReadTrips(path string) ([]model.TripRecord, error) {
	var f tripsFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("parsing trips file: %w", err)
	}
	return f.Trips, nil
}

// FromRecord flattens a producer record. Trips without an id get a fresh one.
func FromRecord(r model.TripRecord) model.TripSnapshot {
	s := model.TripSnapshot{
		ID:       strings.TrimSpace(r.ID),
		Name:     strings.TrimSpace(r.Name),
		Start:    r.Start.UTC(),
		End:      r.End.UTC(),
		Budget:   r.Budget,
		Category: strings.TrimSpace(r.Category),
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Category == "" {
		s.Category = snapshot.DefaultCategory
	}
	if len(r.Destinations) > 0 {
		s.Destination = strings.TrimSpace(r.Destinations[0])
	}
	for _, e := range r.Expenses {
		s.TotalExpenses += e.Amount
	}
	if d := s.End.Sub(s.Start); d > 0 {
		s.DurationDays = int(d / pipeline.Day)
	}
	return s
}

// FromRecords flattens every record.
func FromRecords(recs []model.TripRecord) []model.TripSnapshot {
	out := make([]model.TripSnapshot, 0, len(recs))
	for _, r := range recs {
		out = append(out, FromRecord(r))
	}
	return out
}

// Wire converts a snapshot to its serialized form.
func Wire(s model.TripSnapshot) WireRecord {
	return WireRecord{
		ID:            s.ID,
		Name:          s.Name,
		StartEpoch:    epochSeconds(s.Start),
		EndEpoch:      epochSeconds(s.End),
		Destination:   s.Destination,
		Budget:        s.Budget,
		TotalExpenses: s.TotalExpenses,
		Category:      s.Category,
		DurationDays:  s.DurationDays,
	}
}

func wireAll(snaps []model.TripSnapshot) ([]WireRecord, []expenseTotal) {
	trips := make([]WireRecord, 0, len(snaps))
	totals := make([]expenseTotal, 0, len(snaps))
	for _, s := range snaps {
		trips = append(trips, Wire(s))
		totals = append(totals, expenseTotal{ID: s.ID, TotalExpenses: s.TotalExpenses})
	}
	return trips, totals
}

// WriteFile replaces the flat export at path.
func WriteFile(path string, snaps []model.TripSnapshot, syncedAt time.Time) error {
	trips, totals := wireAll(snaps)
	data, err := json.MarshalIndent(struct {
		Trips    []WireRecord   `json:"trips"`
		Expenses []expenseTotal `json:"expenses"`
		LastSync float64        `json:"lastSync"`
	}{trips, totals, epochSeconds(syncedAt)}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	return writeAtomic(path, data)
}

// WriteRegister sets the trip keys in the register document at path, keeping
// any other keys already present.
func WriteRegister(path, tripsKey string, snaps []model.TripSnapshot, syncedAt time.Time) error {
	if tripsKey == "" {
		tripsKey = backend.DefaultTripsKey
	}

	doc := map[string]json.RawMessage{}
	if data, err := os.ReadFile(path); err == nil { //nolint:gosec // path comes from local config
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("decoding existing register: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("reading register: %w", err)
	}

	trips, totals := wireAll(snaps)
	set := func(key string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
		doc[key] = raw
		return nil
	}
	if err := set(tripsKey, trips); err != nil {
		return err
	}
	if err := set(backend.DefaultExpensesKey, totals); err != nil {
		return err
	}
	if err := set(backend.DefaultSyncKey, epochSeconds(syncedAt)); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding register: %w", err)
	}
	return writeAtomic(path, data)
}

// WriteStore replaces the trips in the SQLite store at path in one transaction.
func WriteStore(ctx context.Context, path string, snaps []model.TripSnapshot, syncedAt time.Time) error {
	w, err := store.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	return w.ReplaceTrips(ctx, snaps, syncedAt)
}

// writeAtomic writes to a temp file in the target directory and renames it
// into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

func epochSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}
