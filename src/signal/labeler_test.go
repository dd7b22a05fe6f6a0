package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-watcher/src/models"
)

// -----------------------------------------------------------------------------

func barAt(minute int64, close float64) models.MBar {
	return models.MBar{
		Symbol:      "TEST",
		WindowClose: minute * 60,
		Open:        close,
		High:        close,
		Low:         close,
		Close:       close,
	}
}

// -----------------------------------------------------------------------------

func TestLabelDropsGapPairs(t *testing.T) {
	// Windows at 15, 30, 60 minutes: the 45 window is missing, so the
	// (30, 60) pair must be dropped.
	bars := []models.MBar{
		barAt(15, 100),
		barAt(30, 101),
		barAt(60, 102),
	}

	labeled := Label(bars, 15)
	require.Len(t, labeled, 1)
	assert.Equal(t, int64(15*60), labeled[0].WindowClose)
	assert.Equal(t, 1, labeled[0].Label)

	// The outcome bar rides along so consumers never bridge the gap
	assert.Equal(t, 101.0, labeled[0].NextClose)
	assert.Equal(t, int64(30*60), labeled[0].NextWindowClose)
}

// -----------------------------------------------------------------------------

func TestLabelDropsFinalBar(t *testing.T) {
	bars := []models.MBar{
		barAt(15, 100),
		barAt(30, 99),
		barAt(45, 99),
		barAt(60, 103),
	}

	labeled := Label(bars, 15)
	require.Len(t, labeled, 3)

	// Next close lower -> 0, equal -> 0, higher -> 1
	assert.Equal(t, 0, labeled[0].Label)
	assert.Equal(t, 0, labeled[1].Label)
	assert.Equal(t, 1, labeled[2].Label)
}

// -----------------------------------------------------------------------------

func TestLabelShortInput(t *testing.T) {
	assert.Empty(t, Label(nil, 15))
	assert.Empty(t, Label([]models.MBar{barAt(15, 100)}, 15))
}

// -----------------------------------------------------------------------------

func TestLabelPreservesOrder(t *testing.T) {
	var bars []models.MBar
	for i := 1; i <= 10; i++ {
		bars = append(bars, barAt(int64(i*15), 100+float64(i)))
	}

	labeled := Label(bars, 15)
	require.Len(t, labeled, 9)
	for i := 1; i < len(labeled); i++ {
		assert.Less(t, labeled[i-1].WindowClose, labeled[i].WindowClose)
	}
}
