package pipeline

import (
	"time"

	"github.com/theirongolddev/tripwidget/internal/model"
)

// Summarize counts trips by status at now and totals spend and budgets.
func Summarize(snapshots []model.TripSnapshot, now time.Time) model.TripStats {
	var stats model.TripStats
	for _, s := range snapshots {
		stats.TotalTrips++
		switch Derive(s, now).Status {
		case model.StatusUpcoming:
			stats.Upcoming++
		case model.StatusActive:
			stats.Active++
		case model.StatusPast:
			stats.Past++
		}
		stats.TotalSpent += s.TotalExpenses
		if s.Budget != nil {
			stats.TotalBudget += *s.Budget
		}
	}
	return stats
}
