package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

const validYAML = `
name: test-app
host: 127.0.0.1
port: 8000
log_level: INFO

storage:
  db_type: sqlite
  db_path: test.db

network:
  timeout: 15
  retries: 3
  concurrent_requests: 5

data_source:
  data_retention_days: 7
  update_interval_seconds: 60
  sources:
    - name: yahoo-main
      type: yahoo
      symbols: [AAPL, SPY]

pipeline:
  period_minutes: 15
  benchmark_symbol: SPY
  workers: 4
  backtest:
    entry_cost_bps: 5
    exit_cost_bps: 5
    long_threshold: 0.6
`

// -----------------------------------------------------------------------------

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// -----------------------------------------------------------------------------

func TestNewConfigValid(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "test-app", cfg.Name)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, 15, cfg.Pipeline.PeriodMinutes)
	assert.Equal(t, "SPY", cfg.Pipeline.BenchmarkSymbol)
	assert.Equal(t, 0.6, cfg.Pipeline.Backtest.LongThreshold)
	require.Len(t, cfg.DataSource.Sources, 1)
	assert.Equal(t, []string{"AAPL", "SPY"}, cfg.DataSource.Sources[0].Symbols)
}

// -----------------------------------------------------------------------------

func TestNewConfigMissingFile(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

// -----------------------------------------------------------------------------

func TestNewConfigRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		old  string
		new  string
	}{
		{"negative entry cost", "entry_cost_bps: 5", "entry_cost_bps: -1"},
		{"threshold above one", "long_threshold: 0.6", "long_threshold: 1.5"},
		{"zero period", "period_minutes: 15", "period_minutes: 0"},
		{"privileged port", "port: 8000", "port: 80"},
		{"zero retention", "data_retention_days: 7", "data_retention_days: 0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bad := strings.Replace(validYAML, tc.old, tc.new, 1)
			require.NotEqual(t, validYAML, bad)

			_, err := NewConfig(writeConfig(t, bad))
			assert.Error(t, err)
		})
	}
}

// -----------------------------------------------------------------------------

func TestNewConfigRejectsEmptySources(t *testing.T) {
	bad := `
name: test-app
host: 127.0.0.1
port: 8000

storage:
  db_type: sqlite
  db_path: test.db

network:
  timeout: 15
  retries: 3
  concurrent_requests: 5

data_source:
  data_retention_days: 7
  update_interval_seconds: 60
  sources: []

pipeline:
  period_minutes: 15
`
	_, err := NewConfig(writeConfig(t, bad))
	assert.Error(t, err)
}

// -----------------------------------------------------------------------------

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, cfg.Save(out))

	reloaded, err := NewConfig(out)
	require.NoError(t, err)
	assert.Equal(t, cfg.MConfig, reloaded.MConfig)
}
