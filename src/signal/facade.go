package signal

import (
	"fmt"
	"sync"

	"stock-watcher/src/interfaces"
	"stock-watcher/src/logger"
	"stock-watcher/src/models"
	"stock-watcher/src/utils"
)

// -----------------------------------------------------------------------------
// SignalFacade
//
// The pipeline entry point: validates input at the boundary, then runs
// aggregate -> label -> features -> score -> backtest for one symbol.
// Symbols share no state, so a batch run fans out over a bounded worker pool.
// -----------------------------------------------------------------------------

type SignalFacade struct {
	Config models.MPipelineConfig
	Scorer interfaces.IScorer
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSignalFacade(cfg models.MPipelineConfig, scorer interfaces.IScorer, log *logger.Logger) *SignalFacade {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &SignalFacade{
		Config: cfg,
		Scorer: scorer,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// ValidateConfig rejects invalid pipeline parameters with a descriptive error
// instead of silently clamping them.
func ValidateConfig(cfg models.MPipelineConfig) error {
	if cfg.PeriodMinutes <= 0 {
		return fmt.Errorf("period must be greater than 0 minutes, got %d", cfg.PeriodMinutes)
	}
	if cfg.Backtest.EntryCostBps < 0 {
		return fmt.Errorf("entry cost cannot be negative: %v bps", cfg.Backtest.EntryCostBps)
	}
	if cfg.Backtest.ExitCostBps < 0 {
		return fmt.Errorf("exit cost cannot be negative: %v bps", cfg.Backtest.ExitCostBps)
	}
	if cfg.Backtest.LongThreshold < 0 || cfg.Backtest.LongThreshold > 1 {
		return fmt.Errorf("long threshold must be within [0,1], got %v", cfg.Backtest.LongThreshold)
	}
	return nil
}

// -----------------------------------------------------------------------------

// ValidateBars rejects non-monotonic or duplicate window closes. Such input
// indicates an upstream data bug, not a normal edge case.
func ValidateBars(symbol string, bars []models.MBar) error {
	for i := 1; i < len(bars); i++ {
		if bars[i].WindowClose == bars[i-1].WindowClose {
			return fmt.Errorf("%s: duplicate bar window at %d (index %d)", symbol, bars[i].WindowClose, i)
		}
		if bars[i].WindowClose < bars[i-1].WindowClose {
			return fmt.Errorf("%s: bar windows not strictly increasing at index %d (%d after %d)",
				symbol, i, bars[i].WindowClose, bars[i-1].WindowClose)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// ContextFromBars builds the market-context lookup (window close -> close
// price) from a benchmark's aggregated bars.
func ContextFromBars(bars []models.MBar) map[int64]float64 {
	ctx := make(map[int64]float64, len(bars))
	for _, b := range bars {
		ctx[b.WindowClose] = b.Close
	}
	return ctx
}

// -----------------------------------------------------------------------------

// RunSymbol executes the full pipeline for one symbol over its native
// (commonly 1-minute) bars. marketContext may be nil.
func (f *SignalFacade) RunSymbol(symbol string, minuteBars []models.MBar, marketContext map[int64]float64) (models.MSignalReport, error) {
	report := models.MSignalReport{Symbol: symbol}

	if err := ValidateConfig(f.Config); err != nil {
		return report, err
	}
	if err := ValidateBars(symbol, minuteBars); err != nil {
		return report, err
	}

	bars := Aggregate(minuteBars, f.Config.PeriodMinutes)
	labeled := Label(bars, f.Config.PeriodMinutes)
	features := NewFeatureBuilder().Build(labeled, symbol, marketContext)

	probs := make([]float64, len(features))
	signals := make([]models.MSignal, len(features))
	for i, fv := range features {
		p := f.Scorer.Score(fv)
		probs[i] = p
		signals[i] = models.MSignal{
			Symbol:      symbol,
			WindowClose: fv.WindowClose,
			Close:       labeled[i].Close,
			Probability: p,
		}
	}

	btCfg := f.Config.Backtest
	if btCfg.BarsPerYear <= 0 {
		btCfg.BarsPerYear = utils.BarsPerYear(f.Config.PeriodMinutes)
	}

	summary := RunBacktest(bars, labeled, probs, btCfg)
	summary.Symbol = symbol

	report.Bars = bars
	report.Features = features
	report.Signals = signals
	report.Summary = summary
	return report, nil
}

// -----------------------------------------------------------------------------

// RunAll runs the pipeline for every symbol on a bounded worker pool. The
// benchmark symbol, when present in the batch, provides market context for
// all other symbols. Symbols with malformed bars are skipped and logged.
func (f *SignalFacade) RunAll(data map[string][]models.MBar) map[string]models.MSignalReport {
	results := make(map[string]models.MSignalReport, len(data))
	if len(data) == 0 {
		return results
	}

	var marketContext map[int64]float64
	if benchBars, ok := data[f.Config.BenchmarkSymbol]; ok {
		if err := ValidateBars(f.Config.BenchmarkSymbol, benchBars); err == nil {
			marketContext = ContextFromBars(Aggregate(benchBars, f.Config.PeriodMinutes))
		}
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, f.Config.Workers)

	for symbol, bars := range data {
		wg.Add(1)
		go func(sym string, symBars []models.MBar) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			report, err := f.RunSymbol(sym, symBars, marketContext)
			if err != nil {
				if f.Logger != nil {
					f.Logger.Warning("Pipeline skipped %s: %v", sym, err)
				}
				return
			}

			mu.Lock()
			results[sym] = report
			mu.Unlock()
		}(symbol, bars)
	}

	wg.Wait()
	return results
}
