// Package snapshot turns raw channel records into validated trip snapshots.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/theirongolddev/tripwidget/internal/backend"
	"github.com/theirongolddev/tripwidget/internal/model"
)

// LoadResult is the outcome of reading one channel.
type LoadResult struct {
	Trips    []model.TripSnapshot
	Dropped  int
	Stale    bool
	SyncedAt time.Time
	Errors   []error // one *RecordError per dropped record, or the stale read
}

// Loader reads and validates snapshots from a resolved channel.
type Loader struct {
	log *slog.Logger
}

// NewLoader returns a loader that reports dropped records at debug level.
func NewLoader(log *slog.Logger) *Loader {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Loader{log: log}
}

// Load reads every record from h. A read failure yields a stale result with no
// trips; individual bad records are dropped and counted. Load never panics out
// and Trips is never nil.
func (l *Loader) Load(ctx context.Context, h backend.Handle) (res LoadResult) {
	res.Trips = []model.TripSnapshot{}

	defer func() {
		if p := recover(); p != nil {
			res = LoadResult{
				Trips:  []model.TripSnapshot{},
				Stale:  true,
				Errors: []error{fmt.Errorf("%w: panic: %v", ErrStaleRead, p)},
			}
			l.log.Warn("snapshot read panicked", "source", h.Source(), "panic", p)
		}
	}()

	batch, err := h.Read(ctx)
	if err != nil {
		l.log.Debug("stale read", "source", h.Source(), "error", err)
		res.Stale = true
		res.Errors = []error{fmt.Errorf("%w: %w", ErrStaleRead, err)}
		return res
	}
	res.SyncedAt = batch.SyncedAt

	expenses := expenseTotals(batch.Expenses)

	index := make(map[string]int, len(batch.Trips))
	for i, rec := range batch.Trips {
		s, err := parseRecord(i, rec, expenses)
		if err != nil {
			res.Dropped++
			res.Errors = append(res.Errors, err)
			var re *RecordError
			if errors.As(err, &re) {
				l.log.Debug("record dropped", "source", h.Source(), "index", re.Index, "id", re.ID, "field", re.Field, "error", re.Err)
			}
			continue
		}
		// Duplicate ids: the later record replaces the earlier one in place.
		if j, dup := index[s.ID]; dup {
			res.Trips[j] = s
			continue
		}
		index[s.ID] = len(res.Trips)
		res.Trips = append(res.Trips, s)
	}
	return res
}

// Load is a convenience wrapper around a loader with no logger.
func Load(ctx context.Context, h backend.Handle) LoadResult {
	return NewLoader(nil).Load(ctx, h)
}

// expenseTotals sums the side table per trip id. Entries carrying a single
// expense "amount" rather than a precomputed total are summed as well.
func expenseTotals(recs []backend.Record) map[string]float64 {
	if len(recs) == 0 {
		return nil
	}
	out := make(map[string]float64, len(recs))
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		id, err := requiredString(rec, []string{"id", "tripId"})
		if err != nil {
			continue
		}
		amt, ok := optionalFloat(rec, []string{"totalExpenses", "amount"})
		if !ok {
			continue
		}
		out[canonicalID(id)] += amt
	}
	return out
}
