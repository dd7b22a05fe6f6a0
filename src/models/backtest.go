package models

// -----------------------------------------------------------------------------

// MBacktestConfig holds the knobs of one backtest run. Costs are in basis
// points per side; LongThreshold is the minimum probability to open a trade.
type MBacktestConfig struct {
	EntryCostBps  float64 `json:"entry_cost_bps" yaml:"entry_cost_bps"`
	ExitCostBps   float64 `json:"exit_cost_bps" yaml:"exit_cost_bps"`
	LongThreshold float64 `json:"long_threshold" yaml:"long_threshold"`

	// BarsPerYear drives Sharpe annualization. Zero means "derive from the
	// trading session for the bar period in use".
	BarsPerYear float64 `json:"bars_per_year,omitempty" yaml:"bars_per_year,omitempty"`
}

// -----------------------------------------------------------------------------

// MTrade is one realized entry/exit pair inside a backtest run.
// Entry at the labeled bar's close, exit at its outcome bar's close exactly
// one period later. EntryIndex is the position in the labeled series.
type MTrade struct {
	EntryIndex  int     `json:"entry_index"`
	EntryTime   int64   `json:"entry_time"`
	ExitTime    int64   `json:"exit_time"`
	EntryPrice  float64 `json:"entry_price"`
	ExitPrice   float64 `json:"exit_price"`
	GrossReturn float64 `json:"gross_return"`
	NetReturn   float64 `json:"net_return"`
}

// -----------------------------------------------------------------------------

// MEquityPoint is one point of the backtest equity curve.
type MEquityPoint struct {
	Timestamp int64   `json:"timestamp"`
	Equity    float64 `json:"equity"`
}

// -----------------------------------------------------------------------------

// MMetrics is the aggregate performance record of one backtest run.
type MMetrics struct {
	CAGR        float64 `json:"cagr"`
	Sharpe      float64 `json:"sharpe"`
	MaxDrawdown float64 `json:"max_drawdown"`
	HitRate     float64 `json:"hit_rate"`
	Turnover    float64 `json:"turnover"`
}

// -----------------------------------------------------------------------------

// MBacktestSummary is the result of one symbol's backtest run. Produced fresh
// on every run, never merged with prior runs.
type MBacktestSummary struct {
	Symbol   string         `json:"symbol"`
	Trades   int            `json:"trades"`
	Wins     int            `json:"wins"`
	WinRate  float64        `json:"win_rate"`
	PnlPct   float64        `json:"pnl_pct"`
	Metrics  MMetrics       `json:"metrics"`
	Equity   []MEquityPoint `json:"equity,omitempty"`
	TradeLog []MTrade       `json:"trade_log,omitempty"`
	BarCount int            `json:"bar_count"`
}
