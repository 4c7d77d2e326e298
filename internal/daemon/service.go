// Package daemon is a long-running host for the widget core. It asks the
// scheduler for a display state on the cadence the scheduler hints and serves
// the latest state over HTTP and server-sent events.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/theirongolddev/tripwidget/internal/model"
)

// StateSource computes one display state. *refresh.Scheduler implements it.
type StateSource interface {
	DisplayState(ctx context.Context, now time.Time) model.DisplayState
}

// Config controls the daemon runtime behavior.
type Config struct {
	Addr         string
	EventsBuffer int
	Logger       *slog.Logger
	Now          func() time.Time
}

// Delta captures what changed between two consecutive ticks.
type Delta struct {
	AvailabilityChanged bool    `json:"availability_changed,omitempty"`
	SelectionChanged    bool    `json:"selection_changed,omitempty"`
	StatusChanged       bool    `json:"status_changed,omitempty"`
	DayChanged          bool    `json:"day_changed,omitempty"`
	SpentDelta          float64 `json:"spent_delta,omitempty"`
	TripCountDelta      int     `json:"trip_count_delta,omitempty"`
}

func (d Delta) isZero() bool {
	return d == Delta{}
}

// Event is emitted whenever the display state changes.
type Event struct {
	ID        int64              `json:"id"`
	Type      string             `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
	State     model.DisplayState `json:"state"`
	Delta     Delta              `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time     `json:"started_at"`
	LastTickAt      time.Time     `json:"last_tick_at"`
	NextTickAt      time.Time     `json:"next_tick_at"`
	TickCount       int64         `json:"tick_count"`
	Source          string        `json:"source,omitempty"`
	Available       bool          `json:"available"`
	Selected        string        `json:"selected,omitempty"`
	NextRefreshHint time.Duration `json:"next_refresh_hint_ns"`
	EventCount      int           `json:"event_count"`
	SubscriberCount int           `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config
	src StateSource
	log *slog.Logger

	mu          sync.RWMutex
	startedAt   time.Time
	lastTickAt  time.Time
	nextTickAt  time.Time
	tickCount   int64
	hasState    bool
	state       model.DisplayState
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service over src.
func New(src StateSource, cfg Config) *Service {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Service{
		cfg:       cfg,
		src:       src,
		log:       log,
		startedAt: cfg.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP routes.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/status", s.handleStatus)
	r.Get("/v1/state", s.handleState)
	r.Get("/v1/events", s.handleEvents)
	r.Get("/v1/stream", s.handleStream)
	return r
}

// Run starts HTTP endpoints and ticks until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	timer := time.NewTimer(s.tick(ctx))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-timer.C:
			timer.Reset(s.tick(ctx))
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// tick computes one state, records it, and returns the wait until the next.
func (s *Service) tick(ctx context.Context) time.Duration {
	now := s.cfg.Now()
	st := s.src.DisplayState(ctx, now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.state
	prevExists := s.hasState

	s.hasState = true
	s.state = st
	s.lastTickAt = now
	s.nextTickAt = now.Add(st.NextRefreshHint)
	s.tickCount++

	if !prevExists {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: "state", Timestamp: now, State: st}
		publish = true
	} else if delta := diffStates(prev, st); !delta.isZero() {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: "state_changed", Timestamp: now, State: st, Delta: delta}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}

	s.log.Debug("tick", "available", st.Available, "source", st.Source, "next", st.NextRefreshHint)
	return st.NextRefreshHint
}

func diffStates(prev, curr model.DisplayState) Delta {
	d := Delta{
		AvailabilityChanged: prev.Available != curr.Available,
		TripCountDelta:      curr.Stats.TotalTrips - prev.Stats.TotalTrips,
	}

	p, c := prev.SelectedTrip, curr.SelectedTrip
	switch {
	case p == nil && c == nil:
	case p == nil || c == nil || p.ID != c.ID:
		d.SelectionChanged = true
	default:
		d.StatusChanged = p.Status != c.Status
		d.DayChanged = p.DaysUntil != c.DaysUntil || !sameDay(p.CurrentDay, c.CurrentDay)
		d.SpentDelta = c.Budget.Spent - p.Budget.Spent
	}
	return d
}

func sameDay(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		StartedAt:       s.startedAt,
		LastTickAt:      s.lastTickAt,
		NextTickAt:      s.nextTickAt,
		TickCount:       s.tickCount,
		Source:          s.state.Source,
		Available:       s.state.Available,
		NextRefreshHint: s.state.NextRefreshHint,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
	if s.state.SelectedTrip != nil {
		st.Selected = s.state.SelectedTrip.Name
	}
	return st
}

func (s *Service) currentState() (model.DisplayState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.hasState
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.snapshotStatus())
}

func (s *Service) handleState(w http.ResponseWriter, _ *http.Request) {
	st, ok := s.currentState()
	if !ok {
		http.Error(w, "no state computed yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, st)
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current state immediately.
	st, _ := s.currentState()
	writeSSE(w, Event{Type: "state", Timestamp: s.cfg.Now(), State: st})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
