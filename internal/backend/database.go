package backend

import (
	"context"
	"fmt"

	"github.com/theirongolddev/tripwidget/internal/store"
)

// Database reads the structured store inside the shared container.
type Database struct {
	Path string
}

// Name implements Backend.
func (d Database) Name() string { return "database" }

// Open implements Backend.
func (d Database) Open(ctx context.Context) (Handle, error) {
	if d.Path == "" {
		return nil, fmt.Errorf("database path not configured")
	}
	r, err := store.OpenReadOnly(ctx, d.Path)
	if err != nil {
		return nil, err
	}
	return &databaseHandle{path: d.Path, r: r}, nil
}

type databaseHandle struct {
	path string
	r    *store.Reader
}

func (h *databaseHandle) Source() string { return "database:" + h.path }

func (h *databaseHandle) Read(ctx context.Context) (Batch, error) {
	rows, err := h.r.Trips(ctx)
	if err != nil {
		return Batch{}, err
	}
	b := Batch{Trips: make([]Record, 0, len(rows))}
	for _, row := range rows {
		b.Trips = append(b.Trips, Record(row))
	}
	b.SyncedAt = h.r.LastSync(ctx)
	return b, nil
}

func (h *databaseHandle) Close() error { return h.r.Close() }
