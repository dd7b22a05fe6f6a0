package models

// MProcessingMetrics represents the performance metrics for one pipeline pass.
type MProcessingMetrics struct {
	PipelineTimeSeconds float64 `json:"pipeline_time_seconds"`
	ValidSymbols        int     `json:"valid_symbols"`
	SignalsGenerated    int     `json:"signals_generated"`
}
