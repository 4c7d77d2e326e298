package pipeline

import (
	"strings"
	"time"

	"github.com/theirongolddev/tripwidget/internal/model"
)

// Mode names the display context a widget is configured for.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeActive   Mode = "active"
	ModeUpcoming Mode = "upcoming"
	ModePinned   Mode = "pinned"
)

// ParseMode maps a config value to a Mode, defaulting to ModeAuto.
func ParseMode(s string) Mode {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeActive, ModeUpcoming, ModePinned:
		return m
	default:
		return ModeAuto
	}
}

// Selection configures which trip a display context shows.
// TripID is only consulted for ModePinned.
type Selection struct {
	Mode   Mode
	TripID string
}

// Select returns the most relevant trip at now, or nil when there are none.
//
// Priority: the active trip that started first, then the upcoming trip with the
// fewest days to go, then the most recently ended trip. Remaining ties go to the
// smallest id so the result does not depend on input order.
func Select(snapshots []model.TripSnapshot, now time.Time) *model.DerivedTripView {
	return pick(snapshots, now, func(model.DerivedTripView) bool { return true })
}

// SelectFor applies a display context on top of Select. A pinned trip that is not
// present falls back to the automatic choice.
func SelectFor(sel Selection, snapshots []model.TripSnapshot, now time.Time) *model.DerivedTripView {
	switch sel.Mode {
	case ModeActive:
		return pick(snapshots, now, func(v model.DerivedTripView) bool {
			return v.Status == model.StatusActive
		})
	case ModeUpcoming:
		return pick(snapshots, now, func(v model.DerivedTripView) bool {
			return v.Status == model.StatusUpcoming
		})
	case ModePinned:
		id := strings.ToLower(strings.TrimSpace(sel.TripID))
		if id != "" {
			if v := pick(snapshots, now, func(v model.DerivedTripView) bool {
				return strings.ToLower(v.ID) == id
			}); v != nil {
				return v
			}
		}
		return Select(snapshots, now)
	default:
		return Select(snapshots, now)
	}
}

func pick(snapshots []model.TripSnapshot, now time.Time, keep func(model.DerivedTripView) bool) *model.DerivedTripView {
	var best *model.DerivedTripView
	for _, s := range snapshots {
		v := Derive(s, now)
		if !keep(v) {
			continue
		}
		if best == nil || ranksBefore(v, *best) {
			chosen := v
			best = &chosen
		}
	}
	return best
}

// ranksBefore reports whether a should be shown instead of b.
func ranksBefore(a, b model.DerivedTripView) bool {
	if pa, pb := priority(a.Status), priority(b.Status); pa != pb {
		return pa < pb
	}

	switch a.Status {
	case model.StatusActive:
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
	case model.StatusUpcoming:
		if a.DaysUntil != b.DaysUntil {
			return a.DaysUntil < b.DaysUntil
		}
	case model.StatusPast:
		if !a.End.Equal(b.End) {
			return a.End.After(b.End)
		}
	}
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	// Same id: fall back to the remaining fields so the order stays total.
	if !a.Start.Equal(b.Start) {
		return a.Start.Before(b.Start)
	}
	if !a.End.Equal(b.End) {
		return a.End.Before(b.End)
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	if a.Destination != b.Destination {
		return a.Destination < b.Destination
	}
	return a.Budget.Spent < b.Budget.Spent
}

func priority(s model.TripStatus) int {
	switch s {
	case model.StatusActive:
		return 0
	case model.StatusUpcoming:
		return 1
	default:
		return 2
	}
}
