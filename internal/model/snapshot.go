// Package model defines domain types for trip snapshots and widget display state.
package model

import "time"

// TripSnapshot is the flattened, immutable export of one trip as published by the
// primary application. Budget is nil when no budget was set, which is distinct
// from a zero budget.
type TripSnapshot struct {
	ID            string
	Name          string
	Start         time.Time
	End           time.Time
	Destination   string
	Budget        *float64
	TotalExpenses float64
	Category      string
	DurationDays  int
}

// Expense is a single spend entry on a producer-side trip record.
type Expense struct {
	Title    string  `toml:"title"`
	Amount   float64 `toml:"amount"`
	Category string  `toml:"category,omitempty"`
}

// TripRecord is the producer-side trip as edited in the primary application.
// Only the publish tool works with it; the widget core reads snapshots.
type TripRecord struct {
	ID           string    `toml:"id"`
	Name         string    `toml:"name"`
	Start        time.Time `toml:"start"`
	End          time.Time `toml:"end"`
	Category     string    `toml:"category"`
	Budget       *float64  `toml:"budget,omitempty"`
	Destinations []string  `toml:"destinations"`
	Expenses     []Expense `toml:"expenses"`
}
