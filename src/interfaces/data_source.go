package interfaces

import (
	"context"
	"sync"

	"stock-watcher/src/models"
)

// -----------------------------------------------------------------------------
// IDataSource interface for fetching bar data from external vendors.
// -----------------------------------------------------------------------------

type IDataSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// FetchInitialData retrieves historical minute bars for all configured symbols.
	FetchInitialData() (map[string][]models.MBar, error)

	// -----------------------------------------------------------------------------

	// FetchUpdateData retrieves the latest minute bars since the last fetch.
	FetchUpdateData() (map[string][]models.MBar, error)

	// -----------------------------------------------------------------------------

	// IsRealTime returns true if the source provides real-time data
	IsRealTime() bool

	// -----------------------------------------------------------------------------

	// UpdateSymbols updates the list of symbols being monitored
	UpdateSymbols(symbols []string) error

	// -----------------------------------------------------------------------------

	// Start begins the data fetching process
	// ctx: controls the lifecycle (cancellation stops the source)
	// outputChan: channel to push bar batches to
	// wg: WaitGroup to signal when the source has fully stopped
	Start(ctx context.Context, outputChan chan<- map[string][]models.MBar, wg *sync.WaitGroup) error

	// -----------------------------------------------------------------------------

	// Stop terminates the data fetching process (legacy/manual stop)
	Stop() error
}
