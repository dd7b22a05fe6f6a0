package signal

import (
	"math"
	"time"

	"stock-watcher/src/models"
)

// -----------------------------------------------------------------------------
// Feature Builder
//
// Computes a fixed-width numeric feature vector per labeled bar using only
// causal history (bars at or before the current index). Insufficient history
// resolves to neutral sentinels, never NaN: 0 for returns/gaps/ATR, 50 for RSI.
// -----------------------------------------------------------------------------

const (
	rsiPeriod     = 14
	atrPeriod     = 14
	emaShort      = 9
	emaLong       = 21
	rsiNeutral    = 50.0
	rsiOverbought = 100.0
)

// -----------------------------------------------------------------------------

// FeatureBuilder accumulates per-symbol history while emitting one feature
// vector per input bar.
type FeatureBuilder struct {
	closes []float64
	highs  []float64
	lows   []float64
}

// -----------------------------------------------------------------------------

func NewFeatureBuilder() *FeatureBuilder {
	return &FeatureBuilder{}
}

// -----------------------------------------------------------------------------

// Build produces one feature vector per labeled bar, same order, same count.
// marketContext maps window-close timestamps to the benchmark's close price;
// nil disables the market-context feature (sentinel 0).
func (fb *FeatureBuilder) Build(labeled []models.MLabeledBar, symbol string, marketContext map[int64]float64) []models.MFeatureVector {
	fb.closes = make([]float64, 0, len(labeled))
	fb.highs = make([]float64, 0, len(labeled))
	fb.lows = make([]float64, 0, len(labeled))

	out := make([]models.MFeatureVector, 0, len(labeled))

	for i, lb := range labeled {
		fb.closes = append(fb.closes, lb.Close)
		fb.highs = append(fb.highs, lb.High)
		fb.lows = append(fb.lows, lb.Low)

		fv := models.MFeatureVector{
			Symbol:      symbol,
			WindowClose: lb.WindowClose,
			Return1:     fb.trailingReturn(i, 1),
			Return5:     fb.trailingReturn(i, 5),
			Return15:    fb.trailingReturn(i, 15),
			Return60:    fb.trailingReturn(i, 60),
			RSI14:       fb.rsi(i),
			EMAGap9:     fb.emaGap(i, emaShort),
			EMAGap21:    fb.emaGap(i, emaLong),
			ATR14:       fb.atr(i),
			MinuteOfDay: minuteOfDayUTC(lb.WindowClose),
		}

		if marketContext != nil && i > 0 {
			curr, okCurr := marketContext[lb.WindowClose]
			prev, okPrev := marketContext[labeled[i-1].WindowClose]
			if okCurr && okPrev && prev != 0 {
				fv.MarketReturn = curr/prev - 1
			}
		}

		out = append(out, fv)
	}

	return out
}

// -----------------------------------------------------------------------------

// trailingReturn is closes[i]/closes[i-n] - 1, sentinel 0 without n bars of
// history.
func (fb *FeatureBuilder) trailingReturn(i, n int) float64 {
	if i < n || fb.closes[i-n] == 0 {
		return 0
	}
	return fb.closes[i]/fb.closes[i-n] - 1
}

// -----------------------------------------------------------------------------

// ema computes the exponential moving average over closes[0..i], seeded with
// the first close, k = 2/(period+1). Undefined until period full bars of
// history precede the current one.
func (fb *FeatureBuilder) ema(i, period int) (float64, bool) {
	if i < period {
		return 0, false
	}

	k := 2.0 / float64(period+1)
	e := fb.closes[0]
	for j := 1; j <= i; j++ {
		e = fb.closes[j]*k + e*(1-k)
	}
	return e, true
}

// -----------------------------------------------------------------------------

// emaGap is the current close minus the EMA, sentinel 0 when undefined.
func (fb *FeatureBuilder) emaGap(i, period int) float64 {
	e, ok := fb.ema(i, period)
	if !ok {
		return 0
	}
	return fb.closes[i] - e
}

// -----------------------------------------------------------------------------

// rsi computes RSI over the trailing rsiPeriod close-to-close diffs.
// Sentinel 50 with fewer than rsiPeriod+1 closes; 100 when no losses occurred.
func (fb *FeatureBuilder) rsi(i int) float64 {
	if i+1 < rsiPeriod+1 {
		return rsiNeutral
	}

	gains := 0.0
	losses := 0.0
	for j := i - rsiPeriod + 1; j <= i; j++ {
		diff := fb.closes[j] - fb.closes[j-1]
		if diff > 0 {
			gains += diff
		} else {
			losses += -diff
		}
	}

	avgGain := gains / float64(rsiPeriod)
	avgLoss := losses / float64(rsiPeriod)

	if avgLoss == 0 {
		return rsiOverbought
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

// -----------------------------------------------------------------------------

// atr computes the mean true range over the trailing atrPeriod bars.
// Sentinel 0 with fewer than atrPeriod+1 bars.
func (fb *FeatureBuilder) atr(i int) float64 {
	if i+1 < atrPeriod+1 {
		return 0
	}

	sum := 0.0
	for j := i - atrPeriod + 1; j <= i; j++ {
		prevClose := fb.closes[j-1]
		tr := fb.highs[j] - fb.lows[j]
		tr = math.Max(tr, math.Abs(fb.highs[j]-prevClose))
		tr = math.Max(tr, math.Abs(fb.lows[j]-prevClose))
		sum += tr
	}
	return sum / float64(atrPeriod)
}

// -----------------------------------------------------------------------------

// minuteOfDayUTC is minutes since UTC midnight of the timestamp, 0..1439.
func minuteOfDayUTC(ts int64) int {
	t := time.Unix(ts, 0).UTC()
	return t.Hour()*60 + t.Minute()
}
