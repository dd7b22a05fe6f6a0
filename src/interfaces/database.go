package interfaces

import "stock-watcher/src/models"

// -----------------------------------------------------------------------------
// IDatabase defines the contract for storage operations.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveBarsBulk inserts a batch of raw bars.
	SaveBarsBulk(bars []models.MBar) error

	// -----------------------------------------------------------------------------

	// SaveSignals persists per-bar probabilities for a symbol.
	SaveSignals(signals []models.MSignal) error

	// -----------------------------------------------------------------------------

	// SaveBacktestSummary persists one backtest run's summary and metrics.
	SaveBacktestSummary(summary models.MBacktestSummary) error

	// -----------------------------------------------------------------------------

	// LoadBars returns stored bars for a symbol ordered by window close.
	LoadBars(symbol string, limit int) ([]models.MBar, error)

	// -----------------------------------------------------------------------------

	// CleanupOldData removes data older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
