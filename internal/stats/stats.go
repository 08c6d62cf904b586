package stats

import "math"

// TradingDays is the annualization base: daily volatility scales to a
// yearly figure by sqrt(TradingDays).
const TradingDays = 252

// =============================================================================
// Descriptive statistics
// =============================================================================

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleStdev returns the sample standard deviation (n-1 denominator).
// ok is false when fewer than two values are supplied.
func SampleStdev(values []float64) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}
	mean := Mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1)), true
}

// =============================================================================
// Return series
// =============================================================================

// LogReturns converts a price series into day-over-day log returns
// ln(p_t / p_{t-1}). Pairs containing a non-positive price are skipped,
// so the result may be shorter than len(prices)-1.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 || prices[i] <= 0 {
			continue
		}
		returns = append(returns, math.Log(prices[i]/prices[i-1]))
	}
	return returns
}

// SimpleReturns converts a price series into day-over-day simple
// returns (p_t - p_{t-1}) / p_{t-1}. Pairs with a zero previous price
// are skipped.
func SimpleReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	return returns
}

// =============================================================================
// Scaling helpers
// =============================================================================

// Annualize scales a daily standard deviation to a yearly figure.
func Annualize(dailyStdev float64) float64 {
	return dailyStdev * math.Sqrt(TradingDays)
}

// Tail returns the trailing n values, or all of them when n exceeds
// the length. The result aliases values.
func Tail(values []float64, n int) []float64 {
	if n >= len(values) {
		return values
	}
	return values[len(values)-n:]
}
