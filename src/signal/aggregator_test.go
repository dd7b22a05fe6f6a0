package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-watcher/src/models"
)

// -----------------------------------------------------------------------------

func minuteBar(closeTs int64, o, h, l, c, v float64) models.MBar {
	return models.MBar{
		Symbol:      "TEST",
		WindowClose: closeTs,
		Open:        o,
		High:        h,
		Low:         l,
		Close:       c,
		Volume:      v,
	}
}

// -----------------------------------------------------------------------------

func TestAggregateEmptyInput(t *testing.T) {
	out := Aggregate(nil, 15)
	assert.Empty(t, out)

	out = Aggregate([]models.MBar{}, 15)
	assert.Empty(t, out)
}

// -----------------------------------------------------------------------------

func TestAggregateFoldsOneWindow(t *testing.T) {
	// Two minute bars inside the window closing at 15 minutes
	bars := []models.MBar{
		minuteBar(60, 1, 2, 0.5, 1.5, 10),
		minuteBar(120, 1.5, 1.6, 1.4, 1.5, 5),
	}

	out := Aggregate(bars, 15)
	require.Len(t, out, 1)

	agg := out[0]
	assert.Equal(t, int64(900), agg.WindowClose)
	assert.Equal(t, 1.0, agg.Open)
	assert.Equal(t, 2.0, agg.High)
	assert.Equal(t, 0.5, agg.Low)
	assert.Equal(t, 1.5, agg.Close)
	assert.Equal(t, 15.0, agg.Volume)
}

// -----------------------------------------------------------------------------

func TestAggregateSingleBarBucket(t *testing.T) {
	bars := []models.MBar{minuteBar(60, 3, 4, 2, 3.5, 7)}

	out := Aggregate(bars, 15)
	require.Len(t, out, 1)
	assert.Equal(t, 3.0, out[0].Open)
	assert.Equal(t, 4.0, out[0].High)
	assert.Equal(t, 2.0, out[0].Low)
	assert.Equal(t, 3.5, out[0].Close)
	assert.Equal(t, 7.0, out[0].Volume)
}

// -----------------------------------------------------------------------------

func TestAggregateIdempotent(t *testing.T) {
	var bars []models.MBar
	for i := 1; i <= 60; i++ {
		p := 100 + float64(i)*0.1
		bars = append(bars, minuteBar(int64(i*60), p, p+0.5, p-0.5, p+0.2, 1))
	}

	once := Aggregate(bars, 15)
	twice := Aggregate(once, 15)

	assert.Equal(t, once, twice)
}

// -----------------------------------------------------------------------------

func TestAggregatePreservesGaps(t *testing.T) {
	// Minute bars in windows closing at 900 and 2700; nothing for 1800
	bars := []models.MBar{
		minuteBar(60, 1, 1, 1, 1, 1),
		minuteBar(120, 1, 1, 1, 1, 1),
		minuteBar(1860, 2, 2, 2, 2, 1),
	}

	out := Aggregate(bars, 15)
	require.Len(t, out, 2)
	assert.Equal(t, int64(900), out[0].WindowClose)
	assert.Equal(t, int64(2700), out[1].WindowClose)
}

// -----------------------------------------------------------------------------

func TestAggregateSortsOutput(t *testing.T) {
	bars := []models.MBar{
		minuteBar(1860, 2, 2, 2, 2, 1),
		minuteBar(60, 1, 1, 1, 1, 1),
	}

	out := Aggregate(bars, 15)
	require.Len(t, out, 2)
	assert.Less(t, out[0].WindowClose, out[1].WindowClose)
}
