package signal

import (
	"math"

	"stock-watcher/src/models"
	"stock-watcher/src/signal/core"
)

// -----------------------------------------------------------------------------
// Metrics
//
// Aggregate statistics over one backtest run's per-trade net returns and
// equity curve. Every function degrades to 0 on empty or degenerate input.
// -----------------------------------------------------------------------------

const minYears = 1.0 / 365.0

// -----------------------------------------------------------------------------

// Sharpe is mean(netReturns)/sampleStd(netReturns) * sqrt(barsPerYear).
// Zero for fewer than two trades or a flat return series.
func Sharpe(netReturns []float64, barsPerYear float64) float64 {
	if len(netReturns) <= 1 || barsPerYear <= 0 {
		return 0
	}

	std := core.SampleStd(netReturns)
	if std == 0 {
		return 0
	}

	return core.Mean(netReturns) / std * math.Sqrt(barsPerYear)
}

// -----------------------------------------------------------------------------

// MaxDrawdown is the largest fractional decline from any prior equity peak.
// Zero for a monotonically non-decreasing curve; always within [0,1].
func MaxDrawdown(curve []models.MEquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}

	peak := curve[0].Equity
	maxDD := 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (peak - p.Equity) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}

// -----------------------------------------------------------------------------

// CAGR annualizes the growth between the first and last equity points.
// Elapsed years are floored at one day to avoid division blow-ups on
// single-session curves.
func CAGR(curve []models.MEquityPoint) float64 {
	if len(curve) < 2 {
		return 0
	}

	first := curve[0]
	last := curve[len(curve)-1]
	if first.Equity <= 0 || last.Equity <= 0 {
		return 0
	}

	years := float64(last.Timestamp-first.Timestamp) / (365.25 * 24 * 3600)
	if years < minYears {
		years = minYears
	}

	return math.Pow(last.Equity/first.Equity, 1.0/years) - 1
}
