package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Default keys the producer writes into the shared register.
const (
	DefaultTripsKey    = "widget_trips"
	DefaultExpensesKey = "widget_expenses"
	DefaultSyncKey     = "widget_last_sync"
)

var errEmptyRegister = errors.New("register key holds no trips")

// Register reads a shared key-value register: a JSON object document under an
// agreed path, with the trip list stored under an agreed key.
type Register struct {
	Path        string
	TripsKey    string
	ExpensesKey string
	SyncKey     string
}

// Name implements Backend.
func (r Register) Name() string { return "register" }

// Open implements Backend. The register is read once here; an empty or missing
// key is not viable so the next channel gets a chance.
func (r Register) Open(_ context.Context) (Handle, error) {
	if r.Path == "" {
		return nil, fmt.Errorf("register path not configured")
	}
	data, err := os.ReadFile(r.Path) //nolint:gosec // path comes from local config
	if err != nil {
		return nil, err
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding register: %w", err)
	}

	key := orDefault(r.TripsKey, DefaultTripsKey)
	var trips []json.RawMessage
	if err := json.Unmarshal(doc[key], &trips); err != nil || len(trips) == 0 {
		return nil, fmt.Errorf("%w: %s", errEmptyRegister, key)
	}

	return &registerHandle{
		path:     r.Path,
		trips:    doc[key],
		expenses: doc[orDefault(r.ExpensesKey, DefaultExpensesKey)],
		synced:   doc[orDefault(r.SyncKey, DefaultSyncKey)],
	}, nil
}

type registerHandle struct {
	path     string
	trips    json.RawMessage
	expenses json.RawMessage
	synced   json.RawMessage
}

func (h *registerHandle) Source() string { return "register:" + h.path }

func (h *registerHandle) Read(ctx context.Context) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	trips, err := decodeRecords(h.trips)
	if err != nil {
		return Batch{}, err
	}
	// The expense side table is best effort.
	expenses, _ := decodeRecords(h.expenses)
	return Batch{Trips: trips, Expenses: expenses, SyncedAt: decodeEpoch(h.synced)}, nil
}

func (h *registerHandle) Close() error { return nil }

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
