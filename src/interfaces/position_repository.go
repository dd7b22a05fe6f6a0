package interfaces

import "stock-watcher/src/models"

// -----------------------------------------------------------------------------
// IPositionRepository defines the contract for the manual position tracker.
// -----------------------------------------------------------------------------

type IPositionRepository interface {

	// -----------------------------------------------------------------------------

	// Save inserts or replaces the tracked position for a symbol.
	Save(position models.MPosition) error

	// -----------------------------------------------------------------------------

	// Load returns all tracked positions.
	Load() ([]models.MPosition, error)

	// -----------------------------------------------------------------------------

	// Clear removes all tracked positions.
	Clear() error
}
