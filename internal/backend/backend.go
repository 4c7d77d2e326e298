// Package backend discovers which shared channel currently holds the trip
// snapshot export.
//
// The producer and the widget run in separate sandboxes, and any channel may be
// unconfigured in a given deployment. Channels are tried in order and the first
// one that opens wins the whole tick; data is never merged across channels.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrUnavailable is returned by Resolve when no channel is viable.
var ErrUnavailable = errors.New("no shared trip channel is available")

// Record is one raw trip or expense entry as read from a channel. A nil Record
// marks an entry that was present but not an object.
type Record map[string]any

// Batch is everything one channel read returned.
type Batch struct {
	Trips    []Record
	Expenses []Record  // optional side table of {id, totalExpenses}
	SyncedAt time.Time // zero when the channel does not record it
}

// Handle is an opened, readable channel.
type Handle interface {
	Source() string
	Read(ctx context.Context) (Batch, error)
	Close() error
}

// Backend is one channel strategy. Open returns an error when the channel is
// missing, unreadable or not in the expected shape.
type Backend interface {
	Name() string
	Open(ctx context.Context) (Handle, error)
}

// Resolver tries backends in order.
type Resolver struct {
	backends []Backend
	log      *slog.Logger
}

// NewResolver returns a resolver over backends in priority order.
func NewResolver(log *slog.Logger, backends ...Backend) *Resolver {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Resolver{backends: backends, log: log}
}

// Backends returns the configured strategies in priority order.
func (r *Resolver) Backends() []Backend {
	return r.backends
}

// Resolve returns the first backend that opens, or ErrUnavailable.
func (r *Resolver) Resolve(ctx context.Context) (Handle, error) {
	for _, b := range r.backends {
		if ctx.Err() != nil {
			break
		}
		h, err := safeOpen(ctx, b)
		if err != nil {
			r.log.Debug("channel not viable", "channel", b.Name(), "error", err)
			continue
		}
		r.log.Debug("channel resolved", "channel", b.Name(), "source", h.Source())
		return h, nil
	}
	return nil, ErrUnavailable
}

func safeOpen(ctx context.Context, b Backend) (h Handle, err error) {
	defer func() {
		if p := recover(); p != nil {
			h, err = nil, fmt.Errorf("channel %s panicked: %v", b.Name(), p)
		}
	}()
	h, err = b.Open(ctx)
	if err == nil && h == nil {
		err = fmt.Errorf("channel %s returned no handle", b.Name())
	}
	return h, err
}
