package interfaces

import "stock-watcher/src/models"

// -----------------------------------------------------------------------------
// IDataExchanger defining the interface for sharing data with external systems (Server/Push).
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast pushes a state update to external listeners.
	Broadcast(payload *models.MLatestData)

	// -----------------------------------------------------------------------------
	// UpdateAllDatas merges a state update into the server cache without broadcasting.
	UpdateAllDatas(payload *models.MLatestData)

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
