package models

// -----------------------------------------------------------------------------

// MBar represents one OHLCV observation for a symbol over a fixed time window.
// WindowClose is the close time of the window (unix seconds, UTC) and acts as
// the bar's identity: within a sequence it must strictly increase.
type MBar struct {
	Symbol      string  `json:"symbol"`
	WindowClose int64   `json:"window_close"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Volume      float64 `json:"volume"`
}

// -----------------------------------------------------------------------------

// MLabeledBar is a bar augmented with a forward-looking binary label:
// 1 if the next bar's close was strictly greater than this bar's close.
// Only constructed for consecutive bar pairs (exactly one nominal period
// apart); the outcome bar's close and window are carried along so downstream
// consumers never re-index into the source series across dropped gaps.
type MLabeledBar struct {
	MBar
	Label           int     `json:"label"`
	NextClose       float64 `json:"next_close"`
	NextWindowClose int64   `json:"next_window_close"`
}
