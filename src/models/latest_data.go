package models

// -----------------------------------------------------------------------------
// Server State Structure
// -----------------------------------------------------------------------------

type MLatestData struct {
	Type              string                      `json:"type"` // "INITIAL" or "UPDATE"
	Bars              map[string]MBar             `json:"bars"`
	Signals           map[string]MSignal          `json:"signals"`
	Backtests         map[string]MBacktestSummary `json:"backtests"`
	Timestamp         int64                       `json:"timestamp"`
	ProcessingMetrics MProcessingMetrics          `json:"processing_metrics"`
}

// -----------------------------------------------------------------------------
// SubscribeCommand for client messages
// -----------------------------------------------------------------------------

type MSubscribeCommand struct {
	Command    string   `json:"command"`
	ClientType string   `json:"clientType"`
	Symbols    []string `json:"symbols"`
	Timeframe  string   `json:"timeframe"`
}
