package models

import "time"

// -----------------------------------------------------------------------------

// MPosition is a manually tracked position (the watchlist tracker, not a real
// broker position).
type MPosition struct {
	Symbol     string    `json:"symbol"`
	Quantity   float64   `json:"quantity"`
	EntryPrice float64   `json:"entry_price"`
	OpenedAt   int64     `json:"opened_at"`
	Note       string    `json:"note,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}
