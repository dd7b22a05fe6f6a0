package interfaces

import "stock-watcher/src/models"

// -----------------------------------------------------------------------------
// IScorer maps one feature vector to P(next bar closes higher), in [0,1].
// Implementations must be total over finite feature values: no errors, no NaN.
// Swapping in a trained classifier must not require touching the feature
// builder or the backtest runner.
// -----------------------------------------------------------------------------

type IScorer interface {

	// -----------------------------------------------------------------------------

	// Score returns the probability for one bar's features.
	Score(features models.MFeatureVector) float64
}
