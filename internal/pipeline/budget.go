package pipeline

import "github.com/theirongolddev/tripwidget/internal/model"

// AggregateBudget computes spend figures for a trip. A nil budget means budget
// tracking was not requested: nothing is remaining and nothing is overrun.
func AggregateBudget(budget *float64, totalExpenses float64) model.BudgetStats {
	stats := model.BudgetStats{Spent: totalExpenses}
	if budget == nil {
		return stats
	}

	b := *budget
	stats.Budget = &b
	remaining := max(b-totalExpenses, 0)
	stats.Remaining = &remaining
	stats.Overrun = max(totalExpenses-b, 0)
	if b > 0 {
		stats.PercentUsed = min(max(totalExpenses/b, 0), 1) * 100
	}
	return stats
}

// BurnRate forecasts spend from the average daily burn so far. elapsedDays is
// the number of trip days already lived; it is zero for upcoming trips.
func BurnRate(spent float64, elapsedDays, totalDays int, status model.TripStatus, budget *float64) model.BurnStats {
	var burn model.BurnStats
	if elapsedDays > 0 {
		burn.DailyBurn = spent / float64(elapsedDays)
	}

	burn.ProjectedSpend = spent
	if status == model.StatusActive {
		burn.ProjectedSpend = max(burn.DailyBurn*float64(totalDays), spent)
	}

	if budget != nil {
		burn.ProjectedOverrun = max(burn.ProjectedSpend-*budget, 0)
	}
	return burn
}
