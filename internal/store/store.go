// Package store provides the SQLite trip store shared between the primary
// application and the widget.
//
// The widget only ever opens it read-only. The writer half exists for the
// producer side and replaces the full trip list in one transaction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/theirongolddev/tripwidget/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrNoSchema is returned by OpenReadOnly when the database has no trips table.
var ErrNoSchema = errors.New("trip store has no trips table")

const lastSyncKey = "last_sync"

// Row is one trip row as stored, before any field policy is applied.
// Nullable columns are surfaced as nil.
type Row map[string]any

// Reader is a read-only view of the trip store.
type Reader struct {
	db *sql.DB
}

// OpenReadOnly opens an existing store without creating or migrating it.
func OpenReadOnly(ctx context.Context, dbPath string) (*Reader, error) {
	f, err := os.Open(dbPath) //nolint:gosec // path comes from local config
	if err != nil {
		return nil, err
	}
	_ = f.Close()

	q := url.Values{}
	q.Set("mode", "ro")
	q.Add("_pragma", "query_only(1)")
	q.Add("_pragma", "busy_timeout(250)")
	dsn := "file:" + filepath.ToSlash(dbPath) + "?" + q.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening trip store: %w", err)
	}

	var name string
	err = db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'trips'").Scan(&name)
	if err != nil {
		_ = db.Close()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSchema
		}
		return nil, fmt.Errorf("probing trip store: %w", err)
	}

	return &Reader{db: db}, nil
}

// Close closes the underlying database.
func (r *Reader) Close() error {
	return r.db.Close()
}

// Trips reads every trip row with its summed expenses under the
// "totalExpenses" key, nil when the trip has no expense rows.
func (r *Reader) Trips(ctx context.Context) ([]Row, error) {
	rows, err := r.db.QueryContext(ctx, tripsQuery)
	if err != nil {
		return nil, fmt.Errorf("querying trips: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Row
	for rows.Next() {
		var (
			id, name, destination, category any
			start, end, budget, duration    any
			total                           any
		)
		if err := rows.Scan(&id, &name, &start, &end, &destination, &budget,
			&category, &duration, &total); err != nil {
			return nil, fmt.Errorf("scanning trip row: %w", err)
		}
		out = append(out, Row{
			"id":            id,
			"name":          name,
			"startEpoch":    start,
			"endEpoch":      end,
			"destination":   destination,
			"budget":        budget,
			"category":      category,
			"durationDays":  duration,
			"totalExpenses": total,
		})
	}
	return out, rows.Err()
}

// LastSync returns the producer's last export time, zero when unknown.
func (r *Reader) LastSync(ctx context.Context) time.Time {
	var v string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM sync_meta WHERE key = ?", lastSyncKey).Scan(&v)
	if err != nil {
		return time.Time{}
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return time.Time{}
	}
	whole := math.Floor(secs)
	return time.Unix(int64(whole), int64((secs-whole)*float64(time.Second))).UTC()
}

// Writer is the producer-side handle on the trip store.
type Writer struct {
	db *sql.DB
}

// Create opens or creates the store at dbPath and ensures the schema exists.
func Create(dbPath string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(on)&_pragma=busy_timeout(2000)")
	if err != nil {
		return nil, fmt.Errorf("opening trip store: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Writer{db: db}, nil
}

// Close closes the underlying database.
func (w *Writer) Close() error {
	return w.db.Close()
}

// ReplaceTrips atomically swaps the stored trip list for snaps. Each snapshot's
// TotalExpenses is written as a single expense row so readers see the same total.
func (w *Writer) ReplaceTrips(ctx context.Context, snaps []model.TripSnapshot, syncedAt time.Time) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM expenses"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM trips"); err != nil {
		return err
	}

	for _, s := range snaps {
		var budget any
		if s.Budget != nil {
			budget = *s.Budget
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO trips
			(id, name, start_epoch, end_epoch, destination, budget, category, duration_days)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.Name, epochSeconds(s.Start), epochSeconds(s.End),
			s.Destination, budget, s.Category, s.DurationDays,
		)
		if err != nil {
			return fmt.Errorf("inserting trip %s: %w", s.ID, err)
		}

		if s.TotalExpenses != 0 {
			_, err = tx.ExecContext(ctx, "INSERT INTO expenses (trip_id, title, amount) VALUES (?, ?, ?)",
				s.ID, "total", s.TotalExpenses)
			if err != nil {
				return fmt.Errorf("inserting expenses for %s: %w", s.ID, err)
			}
		}
	}

	_, err = tx.ExecContext(ctx, "INSERT OR REPLACE INTO sync_meta (key, value) VALUES (?, ?)",
		lastSyncKey, strconv.FormatFloat(epochSeconds(syncedAt), 'f', -1, 64))
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Exec runs a raw statement against the store. Tests use it to simulate
// producers running a different schema version.
func (w *Writer) Exec(ctx context.Context, query string, args ...any) error {
	_, err := w.db.ExecContext(ctx, query, args...)
	return err
}

func epochSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}
