package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// File reads the flat serialized export the producer writes next to the store.
//
//	{"trips": [...], "expenses": [{"id": "...", "totalExpenses": 12.5}], "lastSync": 1760000000}
type File struct {
	Path string
}

// Name implements Backend.
func (f File) Name() string { return "file" }

// Open implements Backend. It only checks that the file exists and is readable;
// content problems surface from Read.
func (f File) Open(_ context.Context) (Handle, error) {
	if f.Path == "" {
		return nil, fmt.Errorf("export file path not configured")
	}
	info, err := os.Stat(f.Path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", f.Path)
	}
	fh, err := os.Open(f.Path) //nolint:gosec // path comes from local config
	if err != nil {
		return nil, err
	}
	_ = fh.Close()
	return &fileHandle{path: f.Path}, nil
}

type fileHandle struct {
	path string
}

type exportDoc struct {
	Trips    json.RawMessage `json:"trips"`
	Expenses json.RawMessage `json:"expenses"`
	LastSync json.RawMessage `json:"lastSync"`
}

func (h *fileHandle) Source() string { return "file:" + h.path }

func (h *fileHandle) Read(ctx context.Context) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	data, err := os.ReadFile(h.path)
	if err != nil {
		return Batch{}, fmt.Errorf("reading export: %w", err)
	}

	var doc exportDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return Batch{}, fmt.Errorf("decoding export: %w", err)
	}

	trips, err := decodeRecords(doc.Trips)
	if err != nil {
		return Batch{}, err
	}
	expenses, _ := decodeRecords(doc.Expenses)
	return Batch{Trips: trips, Expenses: expenses, SyncedAt: decodeEpoch(doc.LastSync)}, nil
}

func (h *fileHandle) Close() error { return nil }
