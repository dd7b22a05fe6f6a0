package signal

import (
	"sort"

	"stock-watcher/src/models"
)

// -----------------------------------------------------------------------------
// Bar Aggregator
//
// Folds fine-grained bars (commonly 1-minute) into coarser bars keyed by the
// close time of their containing window. Pure function: no interpolation of
// missing windows, gaps in the input stay gaps in the output.
// -----------------------------------------------------------------------------

// WindowBoundaries returns the [start, close) window containing ts for the
// given period in seconds.
func WindowBoundaries(ts int64, periodSeconds int64) (int64, int64) {
	start := ts - (ts % periodSeconds)
	return start, start + periodSeconds
}

// -----------------------------------------------------------------------------

// Aggregate buckets bars by the close time of their periodMinutes window and
// folds each bucket into a single bar: open of the first, close of the last,
// extremes of high/low, summed volume. Output is sorted ascending by window
// close. A bar whose timestamp already sits on a window close boundary is
// treated as belonging to the window it closes, so aggregating
// already-aggregated bars at the same period is the identity.
func Aggregate(bars []models.MBar, periodMinutes int) []models.MBar {
	if len(bars) == 0 || periodMinutes <= 0 {
		return []models.MBar{}
	}

	periodSeconds := int64(periodMinutes) * 60

	// Bucket by window close key
	buckets := make(map[int64][]models.MBar)
	for _, b := range bars {
		var closeKey int64
		if b.WindowClose%periodSeconds == 0 {
			closeKey = b.WindowClose
		} else {
			start, _ := WindowBoundaries(b.WindowClose, periodSeconds)
			closeKey = start + periodSeconds
		}
		buckets[closeKey] = append(buckets[closeKey], b)
	}

	closeKeys := make([]int64, 0, len(buckets))
	for k := range buckets {
		closeKeys = append(closeKeys, k)
	}
	sort.Slice(closeKeys, func(i, j int) bool { return closeKeys[i] < closeKeys[j] })

	out := make([]models.MBar, 0, len(closeKeys))
	for _, key := range closeKeys {
		subset := buckets[key]
		sort.Slice(subset, func(i, j int) bool {
			return subset[i].WindowClose < subset[j].WindowClose
		})

		agg := models.MBar{
			Symbol:      subset[0].Symbol,
			WindowClose: key,
			Open:        subset[0].Open,
			High:        subset[0].High,
			Low:         subset[0].Low,
			Close:       subset[len(subset)-1].Close,
		}
		for _, b := range subset {
			if b.High > agg.High {
				agg.High = b.High
			}
			if b.Low < agg.Low {
				agg.Low = b.Low
			}
			agg.Volume += b.Volume
		}

		out = append(out, agg)
	}

	return out
}
