// Package refresh computes the widget's display state for one tick and tells
// the host when to ask again.
package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/theirongolddev/tripwidget/internal/backend"
	"github.com/theirongolddev/tripwidget/internal/model"
	"github.com/theirongolddev/tripwidget/internal/pipeline"
	"github.com/theirongolddev/tripwidget/internal/snapshot"
)

// Defaults for Options.
const (
	DefaultInterval    = time.Hour
	DefaultBackoff     = 15 * time.Minute
	DefaultMinInterval = time.Minute
)

// Options tunes a Scheduler. Zero values take the defaults.
type Options struct {
	Selection   pipeline.Selection
	Interval    time.Duration // regular refresh cadence
	Backoff     time.Duration // cadence after an unavailable or stale tick
	MinInterval time.Duration // floor for any hint
	Logger      *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Backoff <= 0 {
		o.Backoff = DefaultBackoff
	}
	if o.MinInterval <= 0 {
		o.MinInterval = DefaultMinInterval
	}
	o.MinInterval = min(o.MinInterval, o.Interval)
	// A failed tick never waits longer than a healthy one.
	o.Backoff = min(o.Backoff, o.Interval)
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Scheduler is the widget's single entry point. It holds configuration only;
// every call re-resolves the channel and re-reads the snapshot.
type Scheduler struct {
	resolver *backend.Resolver
	loader   *snapshot.Loader
	opts     Options
}

// New returns a scheduler over resolver.
func New(resolver *backend.Resolver, opts Options) *Scheduler {
	opts = opts.withDefaults()
	return &Scheduler{
		resolver: resolver,
		loader:   snapshot.NewLoader(opts.Logger),
		opts:     opts,
	}
}

// Options returns the effective options.
func (s *Scheduler) Options() Options {
	return s.opts
}

// DisplayState computes the state for now. It always returns a valid state; no
// channel or record failure escapes it.
func (s *Scheduler) DisplayState(ctx context.Context, now time.Time) (st model.DisplayState) {
	log := s.opts.Logger
	st = s.empty(now)

	defer func() {
		if p := recover(); p != nil {
			log.Error("display state panicked", "panic", p)
			st = s.empty(now)
		}
	}()

	h, err := s.resolver.Resolve(ctx)
	if err != nil {
		log.Debug("no trip channel", "error", err)
		return st
	}
	defer func() {
		if err := h.Close(); err != nil {
			log.Debug("closing channel", "source", h.Source(), "error", err)
		}
	}()

	res := s.loader.Load(ctx, h)
	st.Available = true
	st.Source = h.Source()
	st.SyncedAt = res.SyncedAt
	st.Stale = res.Stale
	st.Dropped = res.Dropped
	if res.Stale {
		log.Info("stale snapshot, backing off", "source", st.Source, "backoff", s.opts.Backoff)
		return st
	}

	st.SelectedTrip = pipeline.SelectFor(s.opts.Selection, res.Trips, now)
	st.Stats = pipeline.Summarize(res.Trips, now)
	st.NextRefreshHint = s.hint(res.Trips, now)

	log.Debug("display state computed",
		"source", st.Source,
		"trips", len(res.Trips),
		"dropped", res.Dropped,
		"next", st.NextRefreshHint,
	)
	return st
}

func (s *Scheduler) empty(now time.Time) model.DisplayState {
	return model.DisplayState{ComputedAt: now, NextRefreshHint: s.opts.Backoff}
}

// hint is the regular interval, cut short by the earliest moment any trip's
// derived state changes, since that can change the selection too.
func (s *Scheduler) hint(trips []model.TripSnapshot, now time.Time) time.Duration {
	d := s.opts.Interval
	for _, t := range trips {
		at, ok := pipeline.NextChange(t, now)
		if !ok {
			continue
		}
		if until := at.Sub(now); until < d {
			d = until
		}
	}
	return max(d, s.opts.MinInterval)
}
