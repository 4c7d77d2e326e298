package model

import (
	"fmt"
	"time"
)

// TripStatus is the time-relative state of a trip.
type TripStatus int

const (
	StatusUpcoming TripStatus = iota
	StatusActive
	StatusPast
)

func (s TripStatus) String() string {
	switch s {
	case StatusUpcoming:
		return "upcoming"
	case StatusActive:
		return "active"
	case StatusPast:
		return "past"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s TripStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *TripStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "upcoming":
		*s = StatusUpcoming
	case "active":
		*s = StatusActive
	case "past":
		*s = StatusPast
	default:
		return fmt.Errorf("unknown trip status %q", text)
	}
	return nil
}

// DerivedTripView is the display-ready state of one trip at a reference time.
// It is computed on every tick and never persisted.
type DerivedTripView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Destination string    `json:"destination,omitempty"`
	Category    string    `json:"category"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`

	Status     TripStatus `json:"status"`
	DaysUntil  int        `json:"days_until"`
	CurrentDay *int       `json:"current_day,omitempty"`
	TotalDays  int        `json:"total_days"`
	Progress   float64    `json:"progress"`

	Budget BudgetStats `json:"budget"`
	Burn   BurnStats   `json:"burn"`
}

// TripStats holds counts and totals across every loaded snapshot.
type TripStats struct {
	TotalTrips  int     `json:"total_trips"`
	Upcoming    int     `json:"upcoming"`
	Active      int     `json:"active"`
	Past        int     `json:"past"`
	TotalSpent  float64 `json:"total_spent"`
	TotalBudget float64 `json:"total_budget"`
}

// DisplayState is the only artifact handed to the display surface for one tick.
// SelectedTrip is nil when there is nothing to show.
type DisplayState struct {
	SelectedTrip    *DerivedTripView `json:"selected_trip,omitempty"`
	ComputedAt      time.Time        `json:"computed_at"`
	NextRefreshHint time.Duration    `json:"next_refresh_hint_ns"`

	Available bool      `json:"available"`
	Source    string    `json:"source,omitempty"`
	SyncedAt  time.Time `json:"synced_at,omitzero"`
	Stale     bool      `json:"stale"`
	Dropped   int       `json:"dropped"`
	Stats     TripStats `json:"stats"`
}
