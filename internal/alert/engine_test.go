package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pesowatch/internal/fxseries"
)

func seriesOf(rates []float64) fxseries.Series {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	series := make(fxseries.Series, len(rates))
	for i, r := range rates {
		series[i] = fxseries.Observation{At: start.AddDate(0, 0, i), Rate: r}
	}
	return series
}

func flat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// jumpSeries is 89 flat closes then a +3.4% day: a many-sigma
// deviation, a vol jump, and a range break all at once.
func jumpSeries() fxseries.Series {
	return seriesOf(append(flat(58.0, 89), 60.0))
}

func findAlert(alerts []Record, id string) *Record {
	for i := range alerts {
		if alerts[i].ID == id {
			return &alerts[i]
		}
	}
	return nil
}

func TestSeverityCooldowns(t *testing.T) {
	tests := []struct {
		sev  Severity
		want time.Duration
	}{
		{SeverityCritical, 12 * time.Hour},
		{SeverityAlert, 24 * time.Hour},
		{SeverityWatch, 24 * time.Hour},
		{SeverityInfo, 6 * time.Hour},
	}
	for _, tt := range tests {
		if got := tt.sev.Cooldown(); got != tt.want {
			t.Errorf("%s cooldown = %v, want %v", tt.sev, got, tt.want)
		}
	}
}

func TestReadinessGate(t *testing.T) {
	engine := NewEngine()
	now := time.Now().UTC()

	res := engine.Evaluate(seriesOf(flat(58.0, 39)), nil, now)
	assert.Equal(t, StatusWaiting, res.Diagnostics.Status)
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, KindWaiting, res.Alerts[0].ID)
	assert.Equal(t, SeverityInfo, res.Alerts[0].Severity)

	res = engine.Evaluate(seriesOf(flat(58.0, 40)), nil, now)
	assert.Equal(t, StatusLive, res.Diagnostics.Status)
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, KindAllClear, res.Alerts[0].ID)
}

func TestEmptySeriesDegradesToWaiting(t *testing.T) {
	res := NewEngine().Evaluate(nil, nil, time.Now().UTC())

	assert.Equal(t, StatusWaiting, res.Diagnostics.Status)
	assert.Equal(t, 0, res.Diagnostics.PointCount)
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, KindWaiting, res.Alerts[0].ID)
}

func TestWaitingNoticeIsCooldownGated(t *testing.T) {
	engine := NewEngine()
	series := seriesOf(flat(58.0, 10))
	t0 := time.Now().UTC()

	first := engine.Evaluate(series, nil, t0)
	require.Len(t, first.Alerts, 1)

	// One hour later the notice is still cooling down. No all-clear
	// substitutes for it either.
	second := engine.Evaluate(series, first.FiredAt, t0.Add(time.Hour))
	assert.Empty(t, second.Alerts)
	assert.Equal(t, 1, second.Diagnostics.Suppressed)
	assert.Equal(t, StatusWaiting, second.Diagnostics.Status)

	// Past the 6h INFO cooldown it re-fires.
	third := engine.Evaluate(series, first.FiredAt, t0.Add(7*time.Hour))
	require.Len(t, third.Alerts, 1)
	assert.Equal(t, KindWaiting, third.Alerts[0].ID)
}

func TestAllClearIdempotence(t *testing.T) {
	engine := NewEngine()
	series := seriesOf(flat(58.0, 200))
	now := time.Now().UTC()

	// Poisoned ledger: even a fresh all-clear stamp must not gate it.
	ledger := Ledger{KindAllClear: now.Add(-time.Minute)}

	for i := 0; i < 3; i++ {
		res := engine.Evaluate(series, ledger, now)

		require.Len(t, res.Alerts, 1, "invocation %d", i)
		assert.Equal(t, KindAllClear, res.Alerts[0].ID)
		assert.Equal(t, SeverityInfo, res.Alerts[0].Severity)
		assert.Equal(t, StatusLive, res.Diagnostics.Status)

		// The all-clear is synthesized, never ledgered: the stamp we
		// planted is the only one there.
		assert.Equal(t, ledger[KindAllClear], res.FiredAt[KindAllClear])
		assert.Len(t, res.FiredAt, 1)

		ledger = res.FiredAt
		now = now.Add(time.Minute)
	}
}

func TestCooldownSuppression(t *testing.T) {
	engine := NewEngine()
	series := jumpSeries()
	now := time.Now().UTC()
	firedAnHourAgo := now.Add(-time.Hour)

	res := engine.Evaluate(series, Ledger{KindMoveRare: firedAnHourAgo}, now)

	assert.Nil(t, findAlert(res.Alerts, KindMoveRare),
		"move:rare must stay suppressed inside its 12h cooldown")
	assert.Equal(t, firedAnHourAgo, res.FiredAt[KindMoveRare],
		"suppressed kinds keep their original stamp")
	assert.GreaterOrEqual(t, res.Diagnostics.Suppressed, 1)

	// 13 hours on, the same signal clears its cooldown.
	later := now.Add(13 * time.Hour)
	res = engine.Evaluate(series, res.FiredAt, later)

	rec := findAlert(res.Alerts, KindMoveRare)
	require.NotNil(t, rec)
	assert.Equal(t, later, res.FiredAt[KindMoveRare])
}

func TestJumpFiresDeviationVolAndRangeRules(t *testing.T) {
	res := NewEngine().Evaluate(jumpSeries(), nil, time.Now().UTC())

	rare := findAlert(res.Alerts, KindMoveRare)
	require.NotNil(t, rare, "a +3.4%% day after 89 flat closes is many sigma out")
	assert.Equal(t, SeverityCritical, rare.Severity)
	require.Contains(t, rare.Meta, "zScore90")
	assert.Greater(t, rare.Meta["zScore90"], 3.0)

	jump := findAlert(res.Alerts, KindVolJump)
	require.NotNil(t, jump)
	assert.Equal(t, SeverityAlert, jump.Severity)

	rangeRec := findAlert(res.Alerts, KindRangeBreak)
	require.NotNil(t, rangeRec)
	assert.Contains(t, rangeRec.Signal, "above")

	assert.Nil(t, findAlert(res.Alerts, KindAllClear))

	diag := res.Diagnostics
	assert.Equal(t, StatusLive, diag.Status)
	assert.Equal(t, 90, diag.PointCount)
	assert.NotEmpty(t, diag.EvaluationID)
	require.NotNil(t, diag.ZScore90)
	assert.Greater(t, *diag.ZScore90, 3.0)
	require.NotNil(t, diag.VolRatio)
	assert.GreaterOrEqual(t, *diag.VolRatio, ratioJump)
}

func TestVolRisingTier(t *testing.T) {
	// 90 sessions of ±0.2% chop, then 31 sessions of ±0.433%: the
	// 30/90 ratio lands between the rising and jump thresholds.
	rates := make([]float64, 0, 121)
	for i := 0; i < 90; i++ {
		r := 58.0
		if i%2 == 1 {
			r = 58.0 * 1.002
		}
		rates = append(rates, r)
	}
	for i := 90; i < 121; i++ {
		r := 58.0
		if i%2 == 1 {
			r = 58.0 * 1.00433
		}
		rates = append(rates, r)
	}

	res := NewEngine().Evaluate(seriesOf(rates), nil, time.Now().UTC())

	require.Len(t, res.Alerts, 1)
	assert.Equal(t, KindVolRising, res.Alerts[0].ID)
	assert.Equal(t, SeverityWatch, res.Alerts[0].Severity)

	require.NotNil(t, res.Diagnostics.VolRatio)
	assert.GreaterOrEqual(t, *res.Diagnostics.VolRatio, ratioRising)
	assert.Less(t, *res.Diagnostics.VolRatio, ratioJump)
}

func TestRangeBreakDirections(t *testing.T) {
	tests := []struct {
		name    string
		last    float64
		wantDir string
	}{
		{"break below", 57.8, "below"},
		{"break above", 58.2, "above"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Wild early swings keep the z-score small; a tight prior
			// 19 days makes the break unambiguous.
			rates := make([]float64, 0, 60)
			for i := 0; i < 40; i++ {
				if i%2 == 0 {
					rates = append(rates, 57.0)
				} else {
					rates = append(rates, 59.0)
				}
			}
			rates = append(rates, flat(58.0, 19)...)
			rates = append(rates, tt.last)

			res := NewEngine().Evaluate(seriesOf(rates), nil, time.Now().UTC())

			require.Len(t, res.Alerts, 1)
			rec := res.Alerts[0]
			assert.Equal(t, KindRangeBreak, rec.ID)
			assert.Equal(t, SeverityAlert, rec.Severity)
			assert.Contains(t, rec.Signal, tt.wantDir)
		})
	}
}

func TestEvaluateNeverMutatesInputLedger(t *testing.T) {
	stamp := time.Now().UTC().Add(-48 * time.Hour)
	input := Ledger{KindMoveRare: stamp}

	res := NewEngine().Evaluate(jumpSeries(), input, time.Now().UTC())

	assert.Len(t, input, 1)
	assert.Equal(t, stamp, input[KindMoveRare])
	assert.NotEqual(t, stamp, res.FiredAt[KindMoveRare])
}

func TestLedgerClone(t *testing.T) {
	var nilLedger Ledger
	clone := nilLedger.Clone()
	require.NotNil(t, clone)

	clone["x"] = time.Now()
	assert.Len(t, nilLedger, 0)
}
