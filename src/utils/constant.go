package utils

import "math"

// -----------------------------------------------------------------------------

// Constants for data retention and annualization.
// Standard US session: 6.5 hours * 60 minutes = 390 minute bars per day,
// 252 trading days per year.
const (
	DefaultRetentionDays = 7
	TradingDaysPerYear   = 252
	SessionMinutes       = 390
)

// -----------------------------------------------------------------------------

// CalculateMaxDataPoints calculates max data points based on retention days.
// approx 400 points per day (covering 6.5h market hours)
func CalculateMaxDataPoints(days int) int {
	return int(math.Ceil(float64(days) * 400))
}

// -----------------------------------------------------------------------------

// BarsPerYear returns the number of session bars per year for a bar period.
// 15-minute bars give 26 bars/day * 252 days = 6552.
func BarsPerYear(periodMinutes int) float64 {
	if periodMinutes <= 0 {
		periodMinutes = 1
	}
	barsPerDay := float64(SessionMinutes) / float64(periodMinutes)
	return float64(TradingDaysPerYear) * barsPerDay
}
