package models

// MConfig Structure
type MConfig struct {
	Name       string            `yaml:"name"`
	Host       string            `yaml:"host"`
	Port       int               `yaml:"port"`
	LogLevel   string            `yaml:"log_level"`
	Storage    MStorageConfig    `yaml:"storage"`
	Network    MNetworkConfig    `yaml:"network"`
	DataSource MDataSourceConfig `yaml:"data_source"`
	Pipeline   MPipelineConfig   `yaml:"pipeline"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MNetworkConfig struct {
	RequestTimeout     int    `yaml:"timeout"`
	MaxRetries         int    `yaml:"retries"`
	ConcurrentRequests int    `yaml:"concurrent_requests"`
	UserAgent          string `yaml:"user_agent"`
}

type MDataSourceConfig struct {
	DataRetentionDays     int             `yaml:"data_retention_days"`
	UpdateIntervalSeconds int             `yaml:"update_interval_seconds"`
	Sources               []MSourceConfig `yaml:"sources"`
}

type MSourceConfig struct {
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"` // "yahoo" or "polygon"
	Symbols []string `yaml:"symbols"`
	APIKey  string   `yaml:"api_key"` // Optional, falls back to env
}

// MPipelineConfig drives the signal pipeline: the aggregation window, the
// decision threshold and per-side costs for the backtest, and the benchmark
// used as market context.
type MPipelineConfig struct {
	PeriodMinutes   int             `yaml:"period_minutes"`
	BenchmarkSymbol string          `yaml:"benchmark_symbol"`
	Workers         int             `yaml:"workers"`
	Backtest        MBacktestConfig `yaml:"backtest"`
	Weights         *MScorerWeights `yaml:"weights"` // Optional, overrides the reference model
}

// MScorerWeights is the linear model's coefficient set.
type MScorerWeights struct {
	Return1      float64 `yaml:"return_1"`
	Return5      float64 `yaml:"return_5"`
	Return15     float64 `yaml:"return_15"`
	Return60     float64 `yaml:"return_60"`
	MarketReturn float64 `yaml:"market_return"`
	RSI14        float64 `yaml:"rsi_14"`
	EMAGap9      float64 `yaml:"ema_gap_9"`
	EMAGap21     float64 `yaml:"ema_gap_21"`
	ATR14        float64 `yaml:"atr_14"`
}
