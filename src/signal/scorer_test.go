package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stock-watcher/src/models"
)

// -----------------------------------------------------------------------------

func TestScoreNeutralFeatures(t *testing.T) {
	s := NewLinearScorer()

	// All sentinels: zero linear term, logistic(0) = 0.5
	f := models.MFeatureVector{RSI14: 50}
	assert.InDelta(t, 0.5, s.Score(f), 1e-12)
}

// -----------------------------------------------------------------------------

func TestScoreStaysInOpenInterval(t *testing.T) {
	s := NewLinearScorer()

	extremes := []models.MFeatureVector{
		{Return1: 10, Return5: 10, Return15: 10, Return60: 10, RSI14: 100, EMAGap9: 50, EMAGap21: 50, MarketReturn: 10},
		{Return1: -10, Return5: -10, Return15: -10, Return60: -10, RSI14: 0, EMAGap9: -50, EMAGap21: -50, ATR14: 100, MarketReturn: -10},
		{},
		{RSI14: 50},
	}

	for i, f := range extremes {
		p := s.Score(f)
		assert.Greater(t, p, 0.0, "case %d", i)
		assert.Less(t, p, 1.0, "case %d", i)
	}
}

// -----------------------------------------------------------------------------

func TestScoreSaturatingInputsStayInOpenInterval(t *testing.T) {
	s := NewLinearScorer()

	// Gap magnitudes reachable on high-priced symbols push the linear term
	// far past where float64 logistic saturates to exactly 0 or 1.
	hot := models.MFeatureVector{RSI14: 50, EMAGap9: 1e6, EMAGap21: 1e6}
	cold := models.MFeatureVector{RSI14: 50, EMAGap9: -1e6, EMAGap21: -1e6}

	pHot := s.Score(hot)
	pCold := s.Score(cold)

	assert.Less(t, pHot, 1.0)
	assert.Greater(t, pHot, 0.99)
	assert.Greater(t, pCold, 0.0)
	assert.Less(t, pCold, 0.01)
}

// -----------------------------------------------------------------------------

func TestScoreMonotonicInMomentum(t *testing.T) {
	s := NewLinearScorer()

	weak := models.MFeatureVector{RSI14: 50, Return5: 0.001}
	strong := models.MFeatureVector{RSI14: 50, Return5: 0.05}

	assert.Greater(t, s.Score(strong), s.Score(weak))
}

// -----------------------------------------------------------------------------

func TestScoreNegativeMomentumBelowHalf(t *testing.T) {
	s := NewLinearScorer()

	f := models.MFeatureVector{RSI14: 50, Return5: -0.05, Return15: -0.03}
	assert.Less(t, s.Score(f), 0.5)
}
