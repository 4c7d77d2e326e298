// Package pipeline derives display state from trip snapshots.
// Every function here is pure: the reference time is always a parameter.
package pipeline

import (
	"time"

	"github.com/theirongolddev/tripwidget/internal/model"
)

// Day is the fixed span used for all day arithmetic. Calendar days and time
// zones play no part; only absolute instants do.
const Day = 24 * time.Hour

// Derive computes the time-relative view of a snapshot at now.
func Derive(s model.TripSnapshot, now time.Time) model.DerivedTripView {
	v := model.DerivedTripView{
		ID:          s.ID,
		Name:        s.Name,
		Destination: s.Destination,
		Category:    s.Category,
		Start:       s.Start,
		End:         s.End,
		TotalDays:   max(s.DurationDays, 1),
	}

	var elapsed int
	switch {
	case now.Before(s.Start):
		v.Status = model.StatusUpcoming
		v.DaysUntil = ceilDays(now, s.Start)
	case !now.After(s.End):
		v.Status = model.StatusActive
		day := floorDays(s.Start, now) + 1
		v.CurrentDay = &day
		v.Progress = min(float64(day)/float64(v.TotalDays), 1)
		elapsed = day
	default:
		v.Status = model.StatusPast
		v.Progress = 1
		elapsed = v.TotalDays
	}

	v.Budget = AggregateBudget(s.Budget, s.TotalExpenses)
	v.Burn = BurnRate(s.TotalExpenses, elapsed, v.TotalDays, v.Status, s.Budget)
	return v
}

// NextChange returns the first instant after now at which Derive would return a
// different status, day count or current day for s.
func NextChange(s model.TripSnapshot, now time.Time) (time.Time, bool) {
	switch {
	case now.Before(s.Start):
		// daysUntil steps down whenever start-now crosses a whole day.
		secs, nanos := span(now, s.Start)
		rem := time.Duration(secs%daySeconds)*time.Second + time.Duration(nanos)
		if rem == 0 {
			rem = Day
		}
		return now.Add(rem), true
	case !now.After(s.End):
		n := int64(floorDays(s.Start, now)) + 1
		next := time.Unix(s.Start.Unix()+n*daySeconds, int64(s.Start.Nanosecond()))
		after := s.End.Add(time.Nanosecond)
		if after.Before(next) {
			next = after
		}
		return next, true
	default:
		return time.Time{}, false
	}
}

const daySeconds = int64(Day / time.Second)

// span returns to-from as whole seconds plus a nanosecond remainder in
// [0, 1e9). Unlike time.Time.Sub it does not saturate for spans past ~292 years.
func span(from, to time.Time) (secs, nanos int64) {
	secs = to.Unix() - from.Unix()
	nanos = int64(to.Nanosecond() - from.Nanosecond())
	if nanos < 0 {
		secs--
		nanos += int64(time.Second)
	}
	return secs, nanos
}

// floorDays counts the whole days from from to to, zero when to is not after from.
func floorDays(from, to time.Time) int {
	secs, _ := span(from, to)
	if secs <= 0 {
		return 0
	}
	return int(secs / daySeconds)
}

// ceilDays counts the started days from from to to, zero when to is not after from.
func ceilDays(from, to time.Time) int {
	secs, nanos := span(from, to)
	if secs < 0 || (secs == 0 && nanos == 0) {
		return 0
	}
	n := secs / daySeconds
	if secs%daySeconds != 0 || nanos != 0 {
		n++
	}
	return int(n)
}
