package risk

import (
	"github.com/wonny/pesowatch/internal/fxseries"
	"github.com/wonny/pesowatch/internal/stats"
)

// ZScore measures how far the latest rate sits from its trailing
// window, in sample standard deviations. The window is "up to": with
// fewer than window points all of them are used. Nil when fewer than
// 2 points exist or the window has zero variation (a flat series has
// no meaningful deviation, not an infinite one).
func ZScore(series fxseries.Series, window int) *float64 {
	if len(series) < 2 {
		return nil
	}

	prices := stats.Tail(series.Rates(), window)
	if len(prices) < 2 {
		return nil
	}

	stdev, ok := stats.SampleStdev(prices)
	if !ok || stdev == 0 {
		return nil
	}

	z := (prices[len(prices)-1] - stats.Mean(prices)) / stdev
	return &z
}
