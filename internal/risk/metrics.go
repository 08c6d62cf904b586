package risk

import (
	"github.com/wonny/pesowatch/internal/fxseries"
	"github.com/wonny/pesowatch/internal/stats"
)

// =============================================================================
// Metrics (pure calculation)
// =============================================================================

// Compute derives the full risk snapshot from a normalized series.
// With fewer than 2 points every metric is nil and PointCount still
// reports the clean length.
//
// Return conventions are intentionally mixed: volatility uses log
// returns, drawdown and daily moves use simple returns. The two
// families are consumed by different displays and must not be unified.
func Compute(series fxseries.Series) Metrics {
	m := Metrics{PointCount: len(series)}
	if len(series) < 2 {
		return m
	}

	prices := series.Rates()

	m.Vol30Ann = RollingVolatility(prices, ShortWindow)
	m.Vol90Ann = RollingVolatility(prices, LongWindow)
	m.MaxDrawdown = MaxDrawdown(prices)

	moves := stats.SimpleReturns(prices)
	if len(moves) > 0 {
		worst, best := moves[0], moves[0]
		for _, r := range moves[1:] {
			if r < worst {
				worst = r
			}
			if r > best {
				best = r
			}
		}
		m.WorstDailyMove = fptr(worst * 100)
		m.BestDailyMove = fptr(best * 100)
	}

	return m
}

// RollingVolatility is the lenient, metrics-card volatility: it takes
// UP TO the last window log returns (all of them when fewer exist) so
// a figure appears as soon as minimally sufficient history does, and
// returns nil below MinReturnSamples. Annualized, percent.
func RollingVolatility(prices []float64, window int) *float64 {
	returns := stats.Tail(stats.LogReturns(prices), window)
	if len(returns) < MinReturnSamples {
		return nil
	}

	stdev, ok := stats.SampleStdev(returns)
	if !ok {
		return nil
	}
	return fptr(stats.Annualize(stdev) * 100)
}

// WindowVolatility is the strict, alert-path volatility: it demands
// exactly window+1 price points (no partial window) and a floor of
// max(MinReturnSamples, window-2) valid log returns, so an undersized
// sample yields "no data" instead of a false LOW-vol reading.
//
// Kept separate from RollingVolatility on purpose: the two disagree on
// edge cases and their consumers depend on that disagreement. A future
// unification would silently change what the metrics card shows.
func WindowVolatility(prices []float64, window int) *float64 {
	if len(prices) < window+1 {
		return nil
	}

	returns := stats.LogReturns(prices[len(prices)-(window+1):])
	floor := MinReturnSamples
	if window-2 > floor {
		floor = window - 2
	}
	if len(returns) < floor {
		return nil
	}

	stdev, ok := stats.SampleStdev(returns)
	if !ok {
		return nil
	}
	return fptr(stats.Annualize(stdev) * 100)
}

// MaxDrawdown is the most negative peak-to-point decline over the
// whole series, in percent (<= 0). A series that never falls below a
// prior peak yields 0; fewer than 2 points yields nil.
func MaxDrawdown(prices []float64) *float64 {
	if len(prices) < 2 {
		return nil
	}

	peak := prices[0]
	worst := 0.0
	for _, p := range prices[1:] {
		if p > peak {
			peak = p
			continue
		}
		if peak > 0 {
			if dd := (p - peak) / peak; dd < worst {
				worst = dd
			}
		}
	}
	return fptr(worst * 100)
}
