package regime

// =============================================================================
// Volatility Regime
// =============================================================================

// VolRegime buckets an annualized volatility percentage against fixed
// published thresholds. The boundaries are a business rule, not a
// statistical estimate.
type VolRegime string

const (
	VolLow    VolRegime = "LOW"
	VolNormal VolRegime = "NORMAL"
	VolHigh   VolRegime = "HIGH"
)

// Thresholds act on percent figures, the same unit risk.Metrics
// reports. 8 and 15 belong to NORMAL.
const (
	volLowMax  = 8.0
	volHighMin = 15.0
)

// ClassifyVol maps an annualized volatility percentage to its regime.
func ClassifyVol(annualVolPct float64) VolRegime {
	switch {
	case annualVolPct < volLowMax:
		return VolLow
	case annualVolPct > volHighMin:
		return VolHigh
	default:
		return VolNormal
	}
}

// Explanation is the fixed reader-facing description for the regime.
func (r VolRegime) Explanation() string {
	switch r {
	case VolLow:
		return "annualized volatility is below the 8% quiet threshold"
	case VolHigh:
		return "annualized volatility exceeds the 15% stress threshold"
	default:
		return "annualized volatility sits inside the 8-15% typical band"
	}
}
