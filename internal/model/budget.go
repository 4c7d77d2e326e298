package model

// BudgetStats holds spend tracking for one trip.
// Remaining is nil when the trip has no budget.
type BudgetStats struct {
	Budget      *float64 `json:"budget,omitempty"`
	Spent       float64  `json:"spent"`
	Remaining   *float64 `json:"remaining,omitempty"`
	PercentUsed float64  `json:"percent_used"`
	Overrun     float64  `json:"overrun"`
}

// BurnStats holds the spend-rate forecast for one trip.
type BurnStats struct {
	DailyBurn        float64 `json:"daily_burn"`
	ProjectedSpend   float64 `json:"projected_spend"`
	ProjectedOverrun float64 `json:"projected_overrun"`
}
