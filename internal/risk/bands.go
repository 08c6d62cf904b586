package risk

import (
	"math"
	"time"

	"github.com/wonny/pesowatch/internal/fxseries"
	"github.com/wonny/pesowatch/internal/stats"
)

// =============================================================================
// Confidence Bands (lognormal fan chart)
// =============================================================================

// Two-sided critical values for the 50/75/95% envelopes.
const (
	z50 = 0.674
	z75 = 1.150
	z95 = 1.960
)

// Band is one forward step of the confidence envelope. The envelope
// is a closed-form lognormal projection, not a simulation and not a
// forecast.
type Band struct {
	Date     time.Time `json:"date"`
	Expected float64   `json:"expected"`
	Lower50  float64   `json:"lower50"`
	Upper50  float64   `json:"upper50"`
	Lower75  float64   `json:"lower75"`
	Upper75  float64   `json:"upper75"`
	Lower95  float64   `json:"lower95"`
	Upper95  float64   `json:"upper95"`
}

// ProjectBands projects the envelope horizon days forward from start.
//
//	expected_t   = spot * exp(drift * t)
//	band edge_t  = expected_t * exp(±z_c * sigmaDaily * sqrt(t))
//
// dailyDrift is a mean daily log return; annualVolPct is the same
// percent figure Metrics reports and is de-annualized internally.
// Half-widths widen monotonically with sqrt(t).
func ProjectBands(spot, dailyDrift, annualVolPct float64, horizon int, start time.Time) []Band {
	if horizon <= 0 || spot <= 0 {
		return nil
	}

	sigmaDaily := (annualVolPct / 100) / math.Sqrt(stats.TradingDays)

	bands := make([]Band, 0, horizon)
	for t := 1; t <= horizon; t++ {
		ft := float64(t)
		expected := spot * math.Exp(dailyDrift*ft)
		spread := sigmaDaily * math.Sqrt(ft)

		bands = append(bands, Band{
			Date:     start.AddDate(0, 0, t),
			Expected: expected,
			Lower50:  expected * math.Exp(-z50*spread),
			Upper50:  expected * math.Exp(z50*spread),
			Lower75:  expected * math.Exp(-z75*spread),
			Upper75:  expected * math.Exp(z75*spread),
			Lower95:  expected * math.Exp(-z95*spread),
			Upper95:  expected * math.Exp(z95*spread),
		})
	}
	return bands
}

// BandInputs derives projection inputs from a series: latest rate as
// spot, mean trailing LongWindow log return as drift, and the lenient
// LongWindow volatility. ok is false when the series cannot support a
// projection (no points, or volatility below its sample floor).
func BandInputs(series fxseries.Series) (spot, dailyDrift, annualVolPct float64, ok bool) {
	latest, has := series.Latest()
	if !has {
		return 0, 0, 0, false
	}

	vol := RollingVolatility(series.Rates(), LongWindow)
	if vol == nil {
		return 0, 0, 0, false
	}

	drift := stats.Mean(stats.Tail(stats.LogReturns(series.Rates()), LongWindow))
	return latest.Rate, drift, *vol, true
}
