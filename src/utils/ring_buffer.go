package utils

import (
	"stock-watcher/src/models"
)

// -----------------------------------------------------------------------------
// RingBuffer is a fixed-size circular buffer of OHLCV bars.
// True ring buffer - no resizing unless Resize is called explicitly.
// -----------------------------------------------------------------------------

type RingBuffer struct {
	// Data storage as 2D slice (rows x fields)
	data     [][models.RB_NUM_FIELDS]float64
	symbol   string
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewRingBuffer creates a new buffer with fixed capacity
func NewRingBuffer(symbol string, capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 1000 // Default reasonable size
	}

	return &RingBuffer{
		data:     make([][models.RB_NUM_FIELDS]float64, capacity),
		symbol:   symbol,
		capacity: capacity,
		index:    0,
		size:     0,
	}
}

// -----------------------------------------------------------------------------

// Append adds a bar (Strict Type)
func (rb *RingBuffer) Append(bar models.MBar) {
	rb.data[rb.index] = [models.RB_NUM_FIELDS]float64{
		float64(bar.WindowClose),
		bar.Open,
		bar.High,
		bar.Low,
		bar.Close,
		bar.Volume,
	}

	rb.index = (rb.index + 1) % rb.capacity

	// Update size (never exceeds capacity)
	if rb.size < rb.capacity {
		rb.size++
	}
}

// -----------------------------------------------------------------------------

func (rb *RingBuffer) barAt(idx int) models.MBar {
	row := rb.data[idx]
	return models.MBar{
		Symbol:      rb.symbol,
		WindowClose: int64(row[models.RB_IDX_TIMESTAMP]),
		Open:        row[models.RB_IDX_OPEN],
		High:        row[models.RB_IDX_HIGH],
		Low:         row[models.RB_IDX_LOW],
		Close:       row[models.RB_IDX_CLOSE],
		Volume:      row[models.RB_IDX_VOLUME],
	}
}

// -----------------------------------------------------------------------------

// GetLatest returns the n latest bars, oldest first
func (rb *RingBuffer) GetLatest(n int) []models.MBar {
	if rb.size == 0 || n <= 0 {
		return []models.MBar{}
	}

	count := n
	if n > rb.size {
		count = rb.size
	}

	result := make([]models.MBar, count)

	// Latest data sits just before the write index
	startIdx := (rb.index - count + rb.capacity) % rb.capacity

	for i := 0; i < count; i++ {
		result[i] = rb.barAt((startIdx + i) % rb.capacity)
	}

	return result
}

// -----------------------------------------------------------------------------

// GetAll returns all bars in insertion order (oldest to newest)
func (rb *RingBuffer) GetAll() []models.MBar {
	if rb.size == 0 {
		return []models.MBar{}
	}

	result := make([]models.MBar, rb.size)

	// Oldest element: write index when full, zero otherwise
	var startIdx int
	if rb.size == rb.capacity {
		startIdx = rb.index
	}

	for i := 0; i < rb.size; i++ {
		result[i] = rb.barAt((startIdx + i) % rb.capacity)
	}

	return result
}

// -----------------------------------------------------------------------------

// Size returns current number of elements
func (rb *RingBuffer) Size() int {
	return rb.size
}

// -----------------------------------------------------------------------------

// Capacity returns buffer capacity (fixed)
func (rb *RingBuffer) Capacity() int {
	return rb.capacity
}

// -----------------------------------------------------------------------------

// Resize changes the capacity of the buffer.
// If newCapacity < size, oldest data is dropped.
func (rb *RingBuffer) Resize(newCapacity int) {
	if newCapacity <= 0 || newCapacity == rb.capacity {
		return
	}

	newData := make([][models.RB_NUM_FIELDS]float64, newCapacity)

	count := rb.size
	if count > newCapacity {
		count = newCapacity
	}

	// Keep the newest 'count' rows
	startIdx := (rb.index - count + rb.capacity) % rb.capacity
	for i := 0; i < count; i++ {
		newData[i] = rb.data[(startIdx+i)%rb.capacity]
	}

	rb.data = newData
	rb.capacity = newCapacity
	rb.size = count
	rb.index = count % newCapacity
}

// -----------------------------------------------------------------------------

// IsFull returns whether buffer is full
func (rb *RingBuffer) IsFull() bool {
	return rb.size == rb.capacity
}

// -----------------------------------------------------------------------------

// Clear resets the buffer
func (rb *RingBuffer) Clear() {
	rb.index = 0
	rb.size = 0
}
