package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-watcher/src/models"
)

// -----------------------------------------------------------------------------

func barN(n int) models.MBar {
	c := 100 + float64(n)
	return models.MBar{
		Symbol:      "TEST",
		WindowClose: int64(n * 60),
		Open:        c,
		High:        c + 1,
		Low:         c - 1,
		Close:       c,
		Volume:      float64(n),
	}
}

// -----------------------------------------------------------------------------

func TestRingBufferAppendAndGetAll(t *testing.T) {
	rb := NewRingBuffer("TEST", 5)
	assert.Equal(t, 0, rb.Size())

	for i := 1; i <= 3; i++ {
		rb.Append(barN(i))
	}

	assert.Equal(t, 3, rb.Size())
	assert.False(t, rb.IsFull())

	all := rb.GetAll()
	require.Len(t, all, 3)
	assert.Equal(t, barN(1), all[0])
	assert.Equal(t, barN(3), all[2])
	assert.Equal(t, "TEST", all[0].Symbol)
}

// -----------------------------------------------------------------------------

func TestRingBufferWrapAround(t *testing.T) {
	rb := NewRingBuffer("TEST", 3)

	for i := 1; i <= 5; i++ {
		rb.Append(barN(i))
	}

	assert.Equal(t, 3, rb.Size())
	assert.True(t, rb.IsFull())

	// Oldest two bars dropped, order preserved
	all := rb.GetAll()
	require.Len(t, all, 3)
	assert.Equal(t, barN(3), all[0])
	assert.Equal(t, barN(5), all[2])
}

// -----------------------------------------------------------------------------

func TestRingBufferGetLatest(t *testing.T) {
	rb := NewRingBuffer("TEST", 10)
	for i := 1; i <= 6; i++ {
		rb.Append(barN(i))
	}

	latest := rb.GetLatest(2)
	require.Len(t, latest, 2)
	assert.Equal(t, barN(5), latest[0])
	assert.Equal(t, barN(6), latest[1])

	// Asking for more than stored returns everything
	assert.Len(t, rb.GetLatest(100), 6)
	assert.Empty(t, rb.GetLatest(0))
}

// -----------------------------------------------------------------------------

func TestRingBufferResize(t *testing.T) {
	rb := NewRingBuffer("TEST", 5)
	for i := 1; i <= 5; i++ {
		rb.Append(barN(i))
	}

	// Shrinking keeps the newest bars
	rb.Resize(2)
	assert.Equal(t, 2, rb.Capacity())
	all := rb.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, barN(4), all[0])
	assert.Equal(t, barN(5), all[1])

	// Expanding keeps data and allows further appends
	rb.Resize(4)
	rb.Append(barN(6))
	assert.Equal(t, 3, rb.Size())
	assert.Equal(t, barN(6), rb.GetAll()[2])
}

// -----------------------------------------------------------------------------

func TestRingBufferClear(t *testing.T) {
	rb := NewRingBuffer("TEST", 3)
	rb.Append(barN(1))
	rb.Clear()

	assert.Equal(t, 0, rb.Size())
	assert.Empty(t, rb.GetAll())
}
