package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-watcher/src/models"
)

// -----------------------------------------------------------------------------

// stubScorer flags exactly one bar as a strong buy.
type stubScorer struct {
	hotWindow int64
	hot       float64
	rest      float64
}

func (s *stubScorer) Score(f models.MFeatureVector) float64 {
	if f.WindowClose == s.hotWindow {
		return s.hot
	}
	return s.rest
}

// -----------------------------------------------------------------------------

func pipelineConfig() models.MPipelineConfig {
	return models.MPipelineConfig{
		PeriodMinutes: 15,
		Workers:       2,
		Backtest: models.MBacktestConfig{
			EntryCostBps:  5,
			ExitCostBps:   5,
			LongThreshold: 0.6,
		},
	}
}

// -----------------------------------------------------------------------------

func TestValidateBars(t *testing.T) {
	good := []models.MBar{barAt(15, 100), barAt(30, 101)}
	assert.NoError(t, ValidateBars("TEST", good))

	dup := []models.MBar{barAt(15, 100), barAt(15, 101)}
	assert.Error(t, ValidateBars("TEST", dup))

	backwards := []models.MBar{barAt(30, 100), barAt(15, 101)}
	assert.Error(t, ValidateBars("TEST", backwards))
}

// -----------------------------------------------------------------------------

func TestValidateConfig(t *testing.T) {
	cfg := pipelineConfig()
	assert.NoError(t, ValidateConfig(cfg))

	bad := cfg
	bad.Backtest.EntryCostBps = -1
	assert.Error(t, ValidateConfig(bad))

	bad = cfg
	bad.Backtest.LongThreshold = 1.5
	assert.Error(t, ValidateConfig(bad))

	bad = cfg
	bad.PeriodMinutes = 0
	assert.Error(t, ValidateConfig(bad))
}

// -----------------------------------------------------------------------------

func TestRunSymbolRejectsMalformedBars(t *testing.T) {
	f := NewSignalFacade(pipelineConfig(), NewLinearScorer(), nil)

	_, err := f.RunSymbol("TEST", []models.MBar{barAt(30, 100), barAt(15, 101)}, nil)
	assert.Error(t, err)
}

// -----------------------------------------------------------------------------

// A flat 40-bar series with a single upward breakout: the stub scorer fires
// only on the breakout bar, so the backtest must realize exactly one trade.
func TestEndToEndSingleBreakout(t *testing.T) {
	var bars []models.MBar
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	closes[21] = 105 // the bar after the breakout entry closes higher

	for i, c := range closes {
		bars = append(bars, models.MBar{
			Symbol:      "TEST",
			WindowClose: int64((i + 1) * 900),
			Open:        c,
			High:        c,
			Low:         c,
			Close:       c,
		})
	}

	hotWindow := bars[20].WindowClose
	scorer := &stubScorer{hotWindow: hotWindow, hot: 0.9, rest: 0.5}
	f := NewSignalFacade(pipelineConfig(), scorer, nil)

	report, err := f.RunSymbol("TEST", bars, nil)
	require.NoError(t, err)

	require.Equal(t, 1, report.Summary.Trades)

	gross := closes[21]/closes[20] - 1
	net := gross - 10.0/10000.0
	assert.InDelta(t, net, report.Summary.PnlPct, 1e-12)
	assert.Equal(t, 1, report.Summary.Wins)

	// Signals align 1:1 with labeled bars (last bar dropped)
	require.Len(t, report.Signals, 39)
	assert.Equal(t, 0.9, report.Signals[20].Probability)
	assert.Equal(t, 0.5, report.Signals[19].Probability)
}

// -----------------------------------------------------------------------------

func TestRunAllIsolatesSymbols(t *testing.T) {
	mkBars := func(base float64) []models.MBar {
		var bars []models.MBar
		for i := 0; i < 20; i++ {
			c := base + float64(i)
			bars = append(bars, models.MBar{
				Symbol:      "X",
				WindowClose: int64((i + 1) * 900),
				Open:        c, High: c, Low: c, Close: c,
			})
		}
		return bars
	}

	cfg := pipelineConfig()
	cfg.BenchmarkSymbol = "SPY"
	f := NewSignalFacade(cfg, NewLinearScorer(), nil)

	data := map[string][]models.MBar{
		"AAA": mkBars(100),
		"BBB": mkBars(50),
		"SPY": mkBars(400),
	}

	results := f.RunAll(data)
	require.Len(t, results, 3)

	for sym, report := range results {
		assert.Equal(t, sym, report.Symbol)
		assert.Len(t, report.Signals, 19)
	}

	// Malformed symbols are skipped, healthy ones survive
	data["BAD"] = []models.MBar{barAt(30, 1), barAt(15, 2)}
	results = f.RunAll(data)
	require.Len(t, results, 3)
	_, ok := results["BAD"]
	assert.False(t, ok)
}
