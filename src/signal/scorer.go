package signal

import (
	"math"

	"stock-watcher/src/models"
)

// -----------------------------------------------------------------------------
// Scorer
//
// The reference model is a fixed linear combination squashed through a
// logistic, producing P(next bar closes higher) in the open interval (0,1).
// The weights live in one place; the duplicated per-screen tunings of earlier
// iterations are not carried.
// -----------------------------------------------------------------------------

// DefaultWeights is the reference model.
func DefaultWeights() models.MScorerWeights {
	return models.MScorerWeights{
		Return1:      0.15,
		Return5:      0.80,
		Return15:     0.55,
		Return60:     0.25,
		MarketReturn: 0.20,
		RSI14:        0.10,
		EMAGap9:      0.08,
		EMAGap21:     0.04,
		ATR14:        -0.02,
	}
}

// -----------------------------------------------------------------------------

// LinearScorer implements interfaces.IScorer with a linear+logistic model.
type LinearScorer struct {
	Weights models.MScorerWeights
}

// -----------------------------------------------------------------------------

func NewLinearScorer() *LinearScorer {
	return &LinearScorer{Weights: DefaultWeights()}
}

// -----------------------------------------------------------------------------

// NewLinearScorerWith builds a scorer from a configured coefficient set.
func NewLinearScorerWith(weights models.MScorerWeights) *LinearScorer {
	return &LinearScorer{Weights: weights}
}

// -----------------------------------------------------------------------------

// Score combines the features linearly and applies logistic squashing.
// Total over all finite feature values; the RSI term is centered at the
// neutral 50 and rescaled to [-1,1].
func (s *LinearScorer) Score(f models.MFeatureVector) float64 {
	w := s.Weights

	x := w.Return5*f.Return5 +
		w.Return15*f.Return15 +
		w.Return60*f.Return60 +
		w.MarketReturn*f.MarketReturn +
		w.RSI14*((f.RSI14-rsiNeutral)/rsiNeutral) +
		w.EMAGap9*f.EMAGap9 +
		w.EMAGap21*f.EMAGap21 +
		w.ATR14*f.ATR14 +
		w.Return1*f.Return1

	return logistic(x)
}

// -----------------------------------------------------------------------------

// probEpsilon keeps scores strictly inside (0,1): the raw logistic saturates
// to exactly 0.0 or 1.0 in float64 once |x| grows past ~37.
const probEpsilon = 1e-9

func logistic(x float64) float64 {
	p := 1.0 / (1.0 + math.Exp(-x))
	if p < probEpsilon {
		return probEpsilon
	}
	if p > 1-probEpsilon {
		return 1 - probEpsilon
	}
	return p
}
