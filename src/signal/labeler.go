package signal

import "stock-watcher/src/models"

// -----------------------------------------------------------------------------
// Labeler
//
// Turns a bar sequence into (bar, label) pairs where label says whether the
// next bar's close was strictly higher. Pairs spanning a time gap are dropped
// rather than bridged: a label is only meaningful when the outcome bar is the
// immediately following window.
// -----------------------------------------------------------------------------

// Label emits one labeled bar per adjacent pair exactly one nominal period
// apart, preserving input order. The final input bar has no known outcome and
// is always dropped.
func Label(bars []models.MBar, periodMinutes int) []models.MLabeledBar {
	if len(bars) < 2 || periodMinutes <= 0 {
		return []models.MLabeledBar{}
	}

	periodSeconds := int64(periodMinutes) * 60
	out := make([]models.MLabeledBar, 0, len(bars)-1)

	for i := 0; i+1 < len(bars); i++ {
		if bars[i+1].WindowClose-bars[i].WindowClose != periodSeconds {
			continue
		}

		label := 0
		if bars[i+1].Close > bars[i].Close {
			label = 1
		}

		out = append(out, models.MLabeledBar{
			MBar:            bars[i],
			Label:           label,
			NextClose:       bars[i+1].Close,
			NextWindowClose: bars[i+1].WindowClose,
		})
	}

	return out
}
