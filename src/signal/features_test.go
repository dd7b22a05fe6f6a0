package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-watcher/src/models"
)

// -----------------------------------------------------------------------------

func labeledSeries(closes []float64) []models.MLabeledBar {
	out := make([]models.MLabeledBar, len(closes))
	for i, c := range closes {
		out[i] = models.MLabeledBar{
			MBar: models.MBar{
				Symbol:      "TEST",
				WindowClose: int64((i + 1) * 900),
				Open:        c,
				High:        c + 0.5,
				Low:         c - 0.5,
				Close:       c,
			},
		}
	}
	return out
}

// -----------------------------------------------------------------------------

func TestFeatureSentinels(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	features := NewFeatureBuilder().Build(labeledSeries(closes), "TEST", nil)
	require.Len(t, features, 30)

	for i := 0; i < 14; i++ {
		assert.Equal(t, 50.0, features[i].RSI14, "RSI sentinel at index %d", i)
		assert.Equal(t, 0.0, features[i].ATR14, "ATR sentinel at index %d", i)
	}
	for i := 0; i < 9; i++ {
		assert.Equal(t, 0.0, features[i].EMAGap9, "EMA gap sentinel at index %d", i)
	}
	for i := 0; i < 21; i++ {
		assert.Equal(t, 0.0, features[i].EMAGap21, "EMA gap sentinel at index %d", i)
	}

	// Monotonically rising series: once defined, RSI pegs at 100 and the
	// short EMA gap is positive.
	assert.Equal(t, 100.0, features[20].RSI14)
	assert.Greater(t, features[20].EMAGap9, 0.0)
	assert.Greater(t, features[20].ATR14, 0.0)
}

// -----------------------------------------------------------------------------

func TestFeatureReturns(t *testing.T) {
	closes := []float64{100, 102, 101, 103, 104, 106, 105}
	features := NewFeatureBuilder().Build(labeledSeries(closes), "TEST", nil)

	assert.Equal(t, 0.0, features[0].Return1)
	assert.InDelta(t, 102.0/100.0-1, features[1].Return1, 1e-12)
	assert.InDelta(t, 106.0/100.0-1, features[5].Return5, 1e-12)
	assert.Equal(t, 0.0, features[4].Return5)
	assert.Equal(t, 0.0, features[6].Return15)
	assert.Equal(t, 0.0, features[6].Return60)
}

// -----------------------------------------------------------------------------

func TestFeatureCausality(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i%7)
	}

	base := NewFeatureBuilder().Build(labeledSeries(closes), "TEST", nil)

	// Mutating future bars must not change features at earlier indices
	mutated := make([]float64, len(closes))
	copy(mutated, closes)
	for i := 25; i < len(mutated); i++ {
		mutated[i] = 999
	}
	changed := NewFeatureBuilder().Build(labeledSeries(mutated), "TEST", nil)

	for i := 0; i < 25; i++ {
		assert.Equal(t, base[i], changed[i], "feature at index %d leaked future data", i)
	}
}

// -----------------------------------------------------------------------------

func TestFeatureMarketContext(t *testing.T) {
	closes := []float64{100, 101, 102}
	labeled := labeledSeries(closes)

	context := map[int64]float64{
		labeled[0].WindowClose: 500,
		labeled[1].WindowClose: 505,
		// No entry for the third bar
	}

	features := NewFeatureBuilder().Build(labeled, "TEST", context)

	assert.Equal(t, 0.0, features[0].MarketReturn)
	assert.InDelta(t, 505.0/500.0-1, features[1].MarketReturn, 1e-12)
	assert.Equal(t, 0.0, features[2].MarketReturn)
}

// -----------------------------------------------------------------------------

func TestFeatureMinuteOfDay(t *testing.T) {
	labeled := []models.MLabeledBar{{
		MBar: models.MBar{
			Symbol: "TEST",
			// 1970-01-01 14:30 UTC
			WindowClose: 14*3600 + 30*60,
			Close:       100,
		},
	}}

	features := NewFeatureBuilder().Build(labeled, "TEST", nil)
	assert.Equal(t, 14*60+30, features[0].MinuteOfDay)
}
