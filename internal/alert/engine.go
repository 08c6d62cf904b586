package alert

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/pesowatch/internal/fxseries"
	"github.com/wonny/pesowatch/internal/risk"
)

// =============================================================================
// Engine (pure state machine)
// =============================================================================

const (
	// MinReadyPoints gates the whole rule set: below it only the
	// "still building history" notice can fire.
	MinReadyPoints = 40

	// Deviation tiers on the 90-day z-score.
	zCritical = 3.0
	zAlert    = 2.0
	zWatch    = 1.5

	// Volatility regime-shift tiers on the 30d/90d ratio.
	ratioJump   = 1.6
	ratioRising = 1.3

	// rangeLookback is the latest point plus the prior days it is
	// compared against.
	rangeLookback = 20
)

// Engine evaluates one series snapshot against the rule set. It is
// stateless and side-effect free: the only state is the caller's
// ledger, passed in and returned updated. Evaluations are
// deterministic in (series, ledger, now) apart from the generated
// evaluation id.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs the rule set in fixed order: readiness gate, deviation
// tiers, volatility jump, range break, all-clear. Every candidate but
// the all-clear passes through the per-severity cooldown gate before
// it reaches the output. Malformed or empty input never fails; it
// degrades to the WAITING branch.
func (e *Engine) Evaluate(series fxseries.Series, ledger Ledger, now time.Time) Result {
	out := ledger.Clone()
	diag := Diagnostics{
		Status:       StatusLive,
		PointCount:   len(series),
		EvaluationID: uuid.NewString(),
		EvaluatedAt:  now,
	}

	alerts := []Record{}
	matched := 0

	// fire gates one candidate through the cooldown ledger. A kind may
	// fire only if it has never fired or strictly more than its
	// severity's cooldown has elapsed.
	fire := func(rec Record) {
		matched++
		if last, ok := out[rec.ID]; ok && now.Sub(last) <= rec.Severity.Cooldown() {
			diag.Suppressed++
			return
		}
		out[rec.ID] = now
		alerts = append(alerts, rec)
	}

	if len(series) < MinReadyPoints {
		diag.Status = StatusWaiting
		fire(waitingRecord(len(series), now))
		return Result{Alerts: alerts, FiredAt: out, Diagnostics: diag}
	}

	// Deviation: only the highest matching tier fires.
	z := risk.ZScore(series, risk.LongWindow)
	diag.ZScore90 = z
	if z != nil {
		switch abs := math.Abs(*z); {
		case abs >= zCritical:
			fire(deviationRecord(KindMoveRare, SeverityCritical, *z, now))
		case abs >= zAlert:
			fire(deviationRecord(KindMoveLarge, SeverityAlert, *z, now))
		case abs >= zWatch:
			fire(deviationRecord(KindMoveElevated, SeverityWatch, *z, now))
		}
	}

	// Volatility jump: strict windows only, so an undersized sample
	// cannot fake a regime shift.
	prices := series.Rates()
	vol30 := risk.WindowVolatility(prices, risk.ShortWindow)
	vol90 := risk.WindowVolatility(prices, risk.LongWindow)
	diag.Vol30Ann, diag.Vol90Ann = vol30, vol90
	if vol30 != nil && vol90 != nil && *vol90 > 0 {
		ratio := *vol30 / *vol90
		diag.VolRatio = &ratio
		switch {
		case ratio >= ratioJump:
			fire(volRecord(KindVolJump, SeverityAlert, ratio, *vol30, *vol90, now))
		case ratio >= ratioRising:
			fire(volRecord(KindVolRising, SeverityWatch, ratio, *vol30, *vol90, now))
		}
	}

	if rec, ok := rangeBreak(prices, now); ok {
		fire(rec)
	}

	// All-clear only when no rule condition matched at all. A
	// suppressed match is not "clear", it is a repeat inside its
	// cooldown. Synthesized fresh each call, never written to the
	// ledger.
	if matched == 0 {
		alerts = append(alerts, allClearRecord(now))
	}

	return Result{Alerts: alerts, FiredAt: out, Diagnostics: diag}
}

// rangeBreak compares the latest rate against the min/max of the
// prior rangeLookback-1 points, strictly.
func rangeBreak(prices []float64, now time.Time) (Record, bool) {
	if len(prices) < rangeLookback {
		return Record{}, false
	}

	latest := prices[len(prices)-1]
	prior := prices[len(prices)-rangeLookback : len(prices)-1]
	low, high := prior[0], prior[0]
	for _, p := range prior {
		if p < low {
			low = p
		}
		if p > high {
			high = p
		}
	}

	switch {
	case latest > high:
		return rangeBreakRecord("above", latest, high, now), true
	case latest < low:
		return rangeBreakRecord("below", latest, low, now), true
	}
	return Record{}, false
}

// =============================================================================
// Record builders
// =============================================================================

func waitingRecord(points int, now time.Time) Record {
	return Record{
		ID:       KindWaiting,
		Severity: SeverityInfo,
		Title:    "Still building history",
		Signal: fmt.Sprintf("%d of %d daily closes collected so far",
			points, MinReadyPoints),
		WhyCare:   "Signals computed on a short history are noise more often than information.",
		NextStep:  "No action needed. Daily collection continues and rules arm automatically.",
		Timestamp: now,
	}
}

func deviationRecord(kind string, sev Severity, z float64, now time.Time) Record {
	direction := "above"
	if z < 0 {
		direction = "below"
	}

	rec := Record{
		ID:       kind,
		Severity: sev,
		Signal: fmt.Sprintf("today's rate sits %.1f standard deviations %s its 90-day mean",
			math.Abs(z), direction),
		Timestamp: now,
		Meta:      map[string]float64{"zScore90": z},
	}

	switch kind {
	case KindMoveRare:
		rec.Title = "Statistically rare move"
		rec.WhyCare = "Moves this far outside the recent distribution usually trace to a concrete event: policy, intervention, or a data release."
		rec.NextStep = "Check PHP and USD news flow before reading anything into the level."
	case KindMoveLarge:
		rec.Title = "Large move"
		rec.WhyCare = "A two-sigma day is uncommon and often precedes a volatility regime change."
		rec.NextStep = "Watch whether the next sessions confirm or fade the move."
	default:
		rec.Title = "Elevated move"
		rec.WhyCare = "The rate is drifting toward the edge of its recent range."
		rec.NextStep = "Nothing urgent. Note the direction and keep watching."
	}
	return rec
}

func volRecord(kind string, sev Severity, ratio, vol30, vol90 float64, now time.Time) Record {
	rec := Record{
		ID:       kind,
		Severity: sev,
		Signal: fmt.Sprintf("30-day volatility %.1f%% is %.2fx the 90-day %.1f%%",
			vol30, ratio, vol90),
		Timestamp: now,
		Meta: map[string]float64{
			"volRatio": ratio,
			"vol30Ann": vol30,
			"vol90Ann": vol90,
		},
	}

	if kind == KindVolJump {
		rec.Title = "Volatility jumped"
		rec.WhyCare = "Risk has repriced: recent sessions are moving much more than the quarter's norm."
		rec.NextStep = "Expect wider daily swings. Treat short-term levels with less confidence."
	} else {
		rec.Title = "Volatility rising"
		rec.WhyCare = "Day-to-day swings are picking up relative to the quarter."
		rec.NextStep = "No action needed yet. A continued rise would confirm a regime shift."
	}
	return rec
}

func rangeBreakRecord(direction string, latest, bound float64, now time.Time) Record {
	boundName := "high"
	if direction == "below" {
		boundName = "low"
	}

	return Record{
		ID:       KindRangeBreak,
		Severity: SeverityAlert,
		Title:    fmt.Sprintf("Range break %s", direction),
		Signal: fmt.Sprintf("latest %.4f broke %s the prior %d-day %s of %.4f",
			latest, direction, rangeLookback-1, boundName, bound),
		WhyCare:   "A close outside the recent range often marks the start of a new leg.",
		NextStep:  "Watch whether the level holds for a second session.",
		Timestamp: now,
		Meta: map[string]float64{
			"latest": latest,
			"bound":  bound,
		},
	}
}

func allClearRecord(now time.Time) Record {
	return Record{
		ID:        KindAllClear,
		Severity:  SeverityInfo,
		Title:     "All clear",
		Signal:    "no deviation, volatility, or range signals today",
		WhyCare:   "The rate is behaving inside its recent norms.",
		NextStep:  "Nothing to do.",
		Timestamp: now,
	}
}
