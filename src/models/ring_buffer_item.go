package models

// RingBuffer indices and constants
const (
	RB_IDX_TIMESTAMP = 0
	RB_IDX_OPEN      = 1
	RB_IDX_HIGH      = 2
	RB_IDX_LOW       = 3
	RB_IDX_CLOSE     = 4
	RB_IDX_VOLUME    = 5
	RB_NUM_FIELDS    = 6
)
