package models

// -----------------------------------------------------------------------------

// MSignal is one scored bar: the probability that the next bar closes higher,
// aligned 1:1 with the labeled bar it was computed from.
type MSignal struct {
	Symbol      string  `json:"symbol"`
	WindowClose int64   `json:"window_close"`
	Close       float64 `json:"close"`
	Probability float64 `json:"probability"`
}

// -----------------------------------------------------------------------------

// MSignalReport is the full pipeline output for one symbol: the aggregated
// bars, the per-bar feature vectors and probabilities, and the backtest
// summary computed over them.
type MSignalReport struct {
	Symbol   string           `json:"symbol"`
	Bars     []MBar           `json:"bars"`
	Features []MFeatureVector `json:"features"`
	Signals  []MSignal        `json:"signals"`
	Summary  MBacktestSummary `json:"summary"`
}
