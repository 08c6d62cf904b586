package regime

import (
	"fmt"
	"math"
)

// =============================================================================
// FX Behavior Classifier
// =============================================================================

// Behavior describes how the rate has been moving inside a window,
// independent of the volatility level.
type Behavior string

const (
	RangeBound            Behavior = "RANGE_BOUND"
	Choppy                Behavior = "CHOPPY"
	DirectionalWithSwings Behavior = "DIRECTIONAL_WITH_SWINGS"
)

// Base comparison thresholds, in percent, calibrated on a 7-day
// window. ClassifyBehavior scales them by sqrt(windowDays/7) so the
// regime call stays comparable across window lengths.
const (
	baseWindowDays    = 7.0
	baseNetSmallMax   = 0.4
	baseRangeSmallMax = 1.0
	baseNetLargeMin   = 1.2
)

// MinBehaviorPoints is the smallest window the classifier accepts.
const MinBehaviorPoints = 3

// ClassifyBehavior labels the price action inside a window. With fewer
// than MinBehaviorPoints the label is nil and the explanation says
// why; that is a degraded answer, not an error. windowDays is the
// nominal window length used for threshold scaling; 0 falls back to
// len(prices).
func ClassifyBehavior(prices []float64, windowDays int) (*Behavior, string) {
	if len(prices) < MinBehaviorPoints {
		return nil, fmt.Sprintf("need at least %d points to classify behavior, have %d",
			MinBehaviorPoints, len(prices))
	}

	low, high := prices[0], prices[0]
	for _, p := range prices {
		if p < low {
			low = p
		}
		if p > high {
			high = p
		}
	}
	first, last := prices[0], prices[len(prices)-1]
	if low <= 0 || first <= 0 {
		return nil, "cannot classify behavior over non-positive prices"
	}

	rangePct := (high - low) / low * 100
	netMovePct := math.Abs((last-first)/first) * 100
	reversals := countReversals(prices)

	if windowDays <= 0 {
		windowDays = len(prices)
	}
	scale := math.Sqrt(float64(windowDays) / baseWindowDays)
	netSmallMax := baseNetSmallMax * scale
	rangeSmallMax := baseRangeSmallMax * scale
	netLargeMin := baseNetLargeMin * scale

	var label Behavior
	switch {
	case netMovePct <= netSmallMax && rangePct <= rangeSmallMax:
		label = RangeBound
	case netMovePct < netLargeMin && rangePct > rangeSmallMax:
		label = Choppy
	case netMovePct >= netLargeMin:
		label = DirectionalWithSwings
	case reversals > len(prices)/3:
		// Mid-sized net move in a tight range: frequent flips read as
		// chop, few flips read as a slow grind.
		label = Choppy
	default:
		label = DirectionalWithSwings
	}
	return &label, label.Explanation()
}

// countReversals counts direction flips in day-over-day deltas. Zero
// deltas neither break nor extend a run.
func countReversals(prices []float64) int {
	reversals := 0
	prevDir := 0
	for i := 1; i < len(prices); i++ {
		d := prices[i] - prices[i-1]
		if d == 0 {
			continue
		}
		dir := 1
		if d < 0 {
			dir = -1
		}
		if prevDir != 0 && dir != prevDir {
			reversals++
		}
		prevDir = dir
	}
	return reversals
}

// Explanation is the fixed reader-facing description for the label.
func (b Behavior) Explanation() string {
	switch b {
	case RangeBound:
		return "rate is oscillating inside a narrow band with no durable direction"
	case Choppy:
		return "rate is swinging widely without a sustained trend"
	default:
		return "rate is trending with meaningful day-to-day swings"
	}
}
