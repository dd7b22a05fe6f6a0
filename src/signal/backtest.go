package signal

import (
	"stock-watcher/src/models"
	"stock-watcher/src/utils"
)

// -----------------------------------------------------------------------------
// Backtest Runner
//
// Simulates a single-bar-hold long-only strategy: each bar whose probability
// clears the threshold becomes an independent one-bar trade entered at that
// bar's close and exited at the next bar's close. Fixed notional of 1 unit,
// no short side. Zero trades is a normal, successful outcome.
// -----------------------------------------------------------------------------

// RunBacktest walks labeled/probs index-aligned, realizes trades, and
// computes the summary metrics. Each labeled bar carries its own outcome bar,
// so dropped gap pairs can never be traded across. bars only supply the
// symbol and the equity-curve origin. Costs are subtracted as
// (entryBps+exitBps)/10000 per trade.
func RunBacktest(bars []models.MBar, labeled []models.MLabeledBar, probs []float64, cfg models.MBacktestConfig) models.MBacktestSummary {
	summary := models.MBacktestSummary{}
	if len(bars) > 0 {
		summary.Symbol = bars[0].Symbol
	}

	n := len(labeled)
	if len(probs) < n {
		n = len(probs)
	}

	costFrac := (cfg.EntryCostBps + cfg.ExitCostBps) / 10000.0

	barsPerYear := cfg.BarsPerYear
	if barsPerYear <= 0 {
		barsPerYear = utils.BarsPerYear(15)
	}

	equity := 1.0
	var curve []models.MEquityPoint
	if len(bars) > 0 {
		curve = append(curve, models.MEquityPoint{Timestamp: bars[0].WindowClose, Equity: equity})
	}

	var netReturns []float64
	var tradeLog []models.MTrade
	wins := 0

	for i := 0; i < n; i++ {
		if probs[i] < cfg.LongThreshold {
			continue
		}

		entry := labeled[i]
		if entry.Close == 0 {
			continue
		}

		gross := entry.NextClose/entry.Close - 1
		net := gross - costFrac

		equity *= 1 + net
		curve = append(curve, models.MEquityPoint{Timestamp: entry.NextWindowClose, Equity: equity})
		netReturns = append(netReturns, net)
		tradeLog = append(tradeLog, models.MTrade{
			EntryIndex:  i,
			EntryTime:   entry.WindowClose,
			ExitTime:    entry.NextWindowClose,
			EntryPrice:  entry.Close,
			ExitPrice:   entry.NextClose,
			GrossReturn: gross,
			NetReturn:   net,
		})

		if net > 0 {
			wins++
		}
	}

	trades := len(netReturns)

	summary.Trades = trades
	summary.Wins = wins
	summary.BarCount = n
	summary.TradeLog = tradeLog
	summary.Equity = curve
	summary.PnlPct = equity - 1

	if trades > 0 {
		summary.WinRate = float64(wins) / float64(trades)
	}

	denom := n
	if denom < 1 {
		denom = 1
	}

	summary.Metrics = models.MMetrics{
		Sharpe:      Sharpe(netReturns, barsPerYear),
		MaxDrawdown: MaxDrawdown(curve),
		CAGR:        CAGR(curve),
		HitRate:     summary.WinRate,
		Turnover:    float64(trades) / float64(denom),
	}

	// Zero trades: everything stays at its zero value, including PnlPct
	if trades == 0 {
		summary.PnlPct = 0
		summary.Metrics = models.MMetrics{}
	}

	return summary
}
