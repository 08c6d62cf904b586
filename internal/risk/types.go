package risk

// =============================================================================
// Windows & Conventions
// =============================================================================

const (
	// ShortWindow and LongWindow are the two lookbacks every consumer
	// of this package uses (metrics card, regime call, alert engine).
	ShortWindow = 30
	LongWindow  = 90

	// MinReturnSamples is the floor below which a volatility figure is
	// withheld rather than reported from a statistically meaningless
	// sample.
	MinReturnSamples = 10

	// BandHorizon is the default forward projection length in days.
	BandHorizon = 30
)

// UnitConvention documents the numeric contract of this package.
// SSOT: every figure in Metrics is a percentage, not a decimal.
// Vol30Ann=9.2 means 9.2% annualized; MaxDrawdown=-3.1 means a 3.1%
// decline from peak. Consumers must not multiply by 100 again.
const UnitConvention = "percent"

// Metrics is the risk snapshot for one series. Nil means "not
// computable from the available history" and must be rendered
// distinctly from zero.
type Metrics struct {
	Vol30Ann       *float64 `json:"vol30_ann"`        // annualized, percent
	Vol90Ann       *float64 `json:"vol90_ann"`        // annualized, percent
	MaxDrawdown    *float64 `json:"max_drawdown"`     // <= 0, percent
	WorstDailyMove *float64 `json:"worst_daily_move"` // percent
	BestDailyMove  *float64 `json:"best_daily_move"`  // percent
	PointCount     int      `json:"point_count"`
}

func fptr(v float64) *float64 {
	return &v
}
