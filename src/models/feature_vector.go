package models

// -----------------------------------------------------------------------------

// MFeatureVector is a fixed schema of numeric features for one bar.
// Every field is causal (computed from bars at or before this one) and falls
// back to a neutral sentinel when history is too short: 0 for returns, gaps
// and ATR, 50 for RSI. Never NaN.
type MFeatureVector struct {
	Symbol      string `json:"symbol"`
	WindowClose int64  `json:"window_close"`

	Return1  float64 `json:"return_1"`
	Return5  float64 `json:"return_5"`
	Return15 float64 `json:"return_15"`
	Return60 float64 `json:"return_60"`

	RSI14    float64 `json:"rsi_14"`
	EMAGap9  float64 `json:"ema_gap_9"`
	EMAGap21 float64 `json:"ema_gap_21"`
	ATR14    float64 `json:"atr_14"`

	// MarketReturn is the benchmark's return over the same bar (0 if unknown).
	MarketReturn float64 `json:"market_return"`

	// MinuteOfDay is minutes since UTC midnight of the bar's window close.
	MinuteOfDay int `json:"minute_of_day"`
}
