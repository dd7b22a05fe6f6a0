package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// -----------------------------------------------------------------------------

func TestMeanStd(t *testing.T) {
	mean, std := MeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 1e-12)
	assert.InDelta(t, 2.0, std, 1e-12)

	mean, std = MeanStd(nil)
	assert.Equal(t, 0.0, mean)
	assert.Equal(t, 0.0, std)

	mean, std = MeanStd([]float64{3})
	assert.Equal(t, 3.0, mean)
	assert.Equal(t, 0.0, std)
}

// -----------------------------------------------------------------------------

func TestSampleStd(t *testing.T) {
	assert.Equal(t, 0.0, SampleStd(nil))
	assert.Equal(t, 0.0, SampleStd([]float64{1}))

	// Sample variance of {1,2,3,4} is 5/3
	std := SampleStd([]float64{1, 2, 3, 4})
	assert.InDelta(t, math.Sqrt(5.0/3.0), std, 1e-12)
}

// -----------------------------------------------------------------------------

func TestCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}
	assert.InDelta(t, 1.0, Correlation(x, y), 1e-12)

	inv := []float64{10, 8, 6, 4, 2}
	assert.InDelta(t, -1.0, Correlation(x, inv), 1e-12)

	flat := []float64{3, 3, 3, 3, 3}
	assert.Equal(t, 0.0, Correlation(x, flat))

	assert.Equal(t, 0.0, Correlation(x, []float64{1, 2}))
}

// -----------------------------------------------------------------------------

func TestChangePercent(t *testing.T) {
	assert.InDelta(t, 0.1, ChangePercent(110, 100), 1e-12)
	assert.Equal(t, 0.0, ChangePercent(5, 0))
}
