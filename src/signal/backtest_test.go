package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-watcher/src/models"
)

// -----------------------------------------------------------------------------

func backtestFixture(closes []float64) ([]models.MBar, []models.MLabeledBar) {
	bars := make([]models.MBar, len(closes))
	for i, c := range closes {
		bars[i] = models.MBar{
			Symbol:      "TEST",
			WindowClose: int64((i + 1) * 900),
			Open:        c,
			High:        c + 1,
			Low:         c - 1,
			Close:       c,
		}
	}
	return bars, Label(bars, 15)
}

// -----------------------------------------------------------------------------

func flatProbs(n int, p float64) []float64 {
	probs := make([]float64, n)
	for i := range probs {
		probs[i] = p
	}
	return probs
}

// -----------------------------------------------------------------------------

func TestBacktestUnreachableThreshold(t *testing.T) {
	bars, labeled := backtestFixture([]float64{100, 101, 102, 103, 104})
	probs := flatProbs(len(labeled), 0.9)

	summary := RunBacktest(bars, labeled, probs, models.MBacktestConfig{LongThreshold: 1.1})

	assert.Equal(t, 0, summary.Trades)
	assert.Equal(t, 0.0, summary.PnlPct)
	assert.Equal(t, 0.0, summary.Metrics.Sharpe)
	assert.Equal(t, 0.0, summary.Metrics.MaxDrawdown)
	assert.Equal(t, 0.0, summary.Metrics.CAGR)
	assert.Equal(t, 0.0, summary.Metrics.Turnover)
}

// -----------------------------------------------------------------------------

func TestBacktestEmptyInput(t *testing.T) {
	summary := RunBacktest(nil, nil, nil, models.MBacktestConfig{LongThreshold: 0.5})
	assert.Equal(t, 0, summary.Trades)
	assert.Equal(t, 0.0, summary.PnlPct)
}

// -----------------------------------------------------------------------------

func TestBacktestSingleTradeNetReturn(t *testing.T) {
	bars, labeled := backtestFixture([]float64{100, 100, 105, 100})
	// Only the second labeled bar qualifies
	probs := []float64{0.1, 0.9, 0.1}

	cfg := models.MBacktestConfig{
		EntryCostBps:  5,
		ExitCostBps:   5,
		LongThreshold: 0.6,
	}
	summary := RunBacktest(bars, labeled, probs, cfg)

	require.Equal(t, 1, summary.Trades)

	gross := 105.0/100.0 - 1
	net := gross - 10.0/10000.0
	assert.InDelta(t, net, summary.PnlPct, 1e-12)
	assert.Equal(t, 1, summary.Wins)
	assert.Equal(t, 1.0, summary.WinRate)
}

// -----------------------------------------------------------------------------

func TestBacktestGappedSeriesTradesOnlyConsecutivePairs(t *testing.T) {
	// Windows 900/1800/3600/4500: the 2700 window is missing, so the labeler
	// emits only (900, 1800) and (3600, 4500). The jump 100 -> 200 sits inside
	// the dropped gap pair and must never be priced as a trade.
	bars := []models.MBar{
		{Symbol: "TEST", WindowClose: 900, Close: 100},
		{Symbol: "TEST", WindowClose: 1800, Close: 100},
		{Symbol: "TEST", WindowClose: 3600, Close: 200},
		{Symbol: "TEST", WindowClose: 4500, Close: 202},
	}
	labeled := Label(bars, 15)
	require.Len(t, labeled, 2)

	probs := []float64{0.0, 1.0}
	summary := RunBacktest(bars, labeled, probs, models.MBacktestConfig{LongThreshold: 0.5})

	require.Equal(t, 1, summary.Trades)
	assert.InDelta(t, 202.0/200.0-1, summary.PnlPct, 1e-12)

	require.Len(t, summary.TradeLog, 1)
	trade := summary.TradeLog[0]
	assert.Equal(t, int64(3600), trade.EntryTime)
	assert.Equal(t, int64(4500), trade.ExitTime)
	assert.Equal(t, 200.0, trade.EntryPrice)
	assert.Equal(t, 202.0, trade.ExitPrice)
}

// -----------------------------------------------------------------------------

func TestBacktestTradeLogMatchesReturns(t *testing.T) {
	bars, labeled := backtestFixture([]float64{100, 100, 105, 100})
	probs := []float64{0.1, 0.9, 0.1}

	cfg := models.MBacktestConfig{
		EntryCostBps:  5,
		ExitCostBps:   5,
		LongThreshold: 0.6,
	}
	summary := RunBacktest(bars, labeled, probs, cfg)

	require.Len(t, summary.TradeLog, 1)
	trade := summary.TradeLog[0]
	assert.Equal(t, 1, trade.EntryIndex)
	assert.Equal(t, 100.0, trade.EntryPrice)
	assert.Equal(t, 105.0, trade.ExitPrice)
	assert.InDelta(t, 0.05, trade.GrossReturn, 1e-12)
	assert.InDelta(t, trade.GrossReturn-10.0/10000.0, trade.NetReturn, 1e-12)
	assert.Equal(t, trade.ExitTime-trade.EntryTime, int64(900))
}

// -----------------------------------------------------------------------------

func TestBacktestCostMonotonicity(t *testing.T) {
	closes := []float64{100, 102, 101, 104, 103, 105, 107, 106, 108, 110}
	bars, labeled := backtestFixture(closes)
	probs := flatProbs(len(labeled), 0.8)

	prevPnl := 1e9
	for _, entryBps := range []float64{0, 5, 20, 100} {
		cfg := models.MBacktestConfig{
			EntryCostBps:  entryBps,
			ExitCostBps:   5,
			LongThreshold: 0.5,
		}
		summary := RunBacktest(bars, labeled, probs, cfg)
		assert.LessOrEqual(t, summary.PnlPct, prevPnl, "entry cost %v bps", entryBps)
		prevPnl = summary.PnlPct
	}
}

// -----------------------------------------------------------------------------

func TestBacktestWinAccounting(t *testing.T) {
	// Up, down, up around the entries
	bars, labeled := backtestFixture([]float64{100, 102, 99, 103, 104})
	probs := flatProbs(len(labeled), 1.0)

	summary := RunBacktest(bars, labeled, probs, models.MBacktestConfig{LongThreshold: 0.5})

	require.Equal(t, 4, summary.Trades)
	assert.Equal(t, 3, summary.Wins)
	assert.InDelta(t, 0.75, summary.WinRate, 1e-12)
	assert.Equal(t, summary.WinRate, summary.Metrics.HitRate)
	assert.InDelta(t, 1.0, summary.Metrics.Turnover, 1e-12)
}

// -----------------------------------------------------------------------------

func TestMaxDrawdownProperties(t *testing.T) {
	increasing := []models.MEquityPoint{
		{Timestamp: 1, Equity: 1.0},
		{Timestamp: 2, Equity: 1.1},
		{Timestamp: 3, Equity: 1.25},
	}
	assert.Equal(t, 0.0, MaxDrawdown(increasing))

	dip := []models.MEquityPoint{
		{Timestamp: 1, Equity: 1.0},
		{Timestamp: 2, Equity: 1.5},
		{Timestamp: 3, Equity: 0.75},
		{Timestamp: 4, Equity: 1.2},
	}
	dd := MaxDrawdown(dip)
	assert.InDelta(t, 0.5, dd, 1e-12)
	assert.GreaterOrEqual(t, dd, 0.0)
	assert.LessOrEqual(t, dd, 1.0)

	assert.Equal(t, 0.0, MaxDrawdown(nil))
}

// -----------------------------------------------------------------------------

func TestSharpeDegenerateInputs(t *testing.T) {
	assert.Equal(t, 0.0, Sharpe(nil, 6552))
	assert.Equal(t, 0.0, Sharpe([]float64{0.01}, 6552))
	assert.Equal(t, 0.0, Sharpe([]float64{0.01, 0.01, 0.01}, 6552))

	s := Sharpe([]float64{0.01, -0.005, 0.02, 0.002}, 6552)
	assert.Greater(t, s, 0.0)
}

// -----------------------------------------------------------------------------

func TestCAGRFloorsElapsedTime(t *testing.T) {
	// Two points one bar apart: years floored at 1/365
	curve := []models.MEquityPoint{
		{Timestamp: 0, Equity: 1.0},
		{Timestamp: 900, Equity: 1.01},
	}
	cagr := CAGR(curve)
	assert.Greater(t, cagr, 0.0)

	assert.Equal(t, 0.0, CAGR(nil))
	assert.Equal(t, 0.0, CAGR(curve[:1]))
}
