package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pesowatch/internal/alert"
	"github.com/wonny/pesowatch/internal/fxseries"
	"github.com/wonny/pesowatch/internal/regime"
	"github.com/wonny/pesowatch/pkg/config"
	"github.com/wonny/pesowatch/pkg/logger"
	"github.com/wonny/pesowatch/pkg/metrics"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeRates struct {
	series fxseries.Series
	err    error
	limit  int
}

func (f *fakeRates) Recent(_ context.Context, limit int) (fxseries.Series, error) {
	f.limit = limit
	return f.series, f.err
}

type fakeLedger struct {
	state   alert.Ledger
	loadErr error
	saveErr error
	saves   int
}

func (f *fakeLedger) Load(context.Context) (alert.Ledger, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.state.Clone(), nil
}

func (f *fakeLedger) Save(_ context.Context, ledger alert.Ledger) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.state = ledger.Clone()
	return nil
}

type fakeNotifier struct {
	batches [][]alert.Record
}

func (f *fakeNotifier) Notify(_ context.Context, records []alert.Record) error {
	f.batches = append(f.batches, records)
	return nil
}

type fakeCaster struct {
	payloads []interface{}
}

func (f *fakeCaster) BroadcastJSON(v interface{}) {
	f.payloads = append(f.payloads, v)
}

// =============================================================================
// Helpers
// =============================================================================

func seriesOf(rates ...float64) fxseries.Series {
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	series := make(fxseries.Series, len(rates))
	for i, r := range rates {
		series[i] = fxseries.Observation{At: base.AddDate(0, 0, i), Rate: r}
	}
	return series
}

func flatSeries(rate float64, n int) fxseries.Series {
	rates := make([]float64, n)
	for i := range rates {
		rates[i] = rate
	}
	return seriesOf(rates...)
}

// jumpSeries ends on an outlier so the deviation and range-break
// rules both match.
func jumpSeries() fxseries.Series {
	rates := make([]float64, 0, 90)
	for i := 0; i < 89; i++ {
		rates = append(rates, 58.0)
	}
	return seriesOf(append(rates, 60.0)...)
}

func newTestMonitor(t *testing.T, rates *fakeRates, ledger *fakeLedger,
	notifier *fakeNotifier, caster *fakeCaster) *Monitor {
	t.Helper()
	log := logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
	var n Notifier
	if notifier != nil {
		n = notifier
	}
	var c Broadcaster
	if caster != nil {
		c = caster
	}
	return New(rates, ledger, n, c, metrics.New(), log)
}

// =============================================================================
// Tests
// =============================================================================

func TestEvaluateQuietMarket(t *testing.T) {
	rates := &fakeRates{series: flatSeries(58.0, 120)}
	ledger := &fakeLedger{}
	notifier := &fakeNotifier{}
	caster := &fakeCaster{}
	m := newTestMonitor(t, rates, ledger, notifier, caster)

	snap, err := m.Evaluate(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, evaluationWindow, rates.limit)
	assert.Equal(t, "USD/PHP", snap.Pair)
	assert.Equal(t, alert.StatusLive, snap.Diagnostics.Status)
	require.NotNil(t, snap.Latest)
	assert.InDelta(t, 58.0, snap.Latest.Rate, 1e-12)

	// A flat window matches no rule, so the only record is the
	// all-clear and the persisted ledger stays empty.
	require.Len(t, snap.Alerts, 1)
	assert.Equal(t, alert.KindAllClear, snap.Alerts[0].ID)
	assert.Equal(t, 1, ledger.saves)
	assert.Empty(t, ledger.state)

	// All-clear is INFO, so nothing leaves the dashboard.
	assert.Empty(t, notifier.batches)
	require.Len(t, caster.payloads, 1)
	assert.Same(t, snap, caster.payloads[0])

	require.NotNil(t, snap.VolRegime)
	assert.Equal(t, regime.VolLow, snap.VolRegime.Label)
	require.NotNil(t, snap.Behavior)
	require.NotNil(t, snap.Behavior.Label)
	assert.Equal(t, regime.RangeBound, *snap.Behavior.Label)
}

func TestEvaluateNotifiesActionableOnly(t *testing.T) {
	rates := &fakeRates{series: jumpSeries()}
	ledger := &fakeLedger{}
	notifier := &fakeNotifier{}
	m := newTestMonitor(t, rates, ledger, notifier, nil)

	snap, err := m.Evaluate(context.Background())
	require.NoError(t, err)

	kinds := make(map[string]alert.Severity, len(snap.Alerts))
	for _, rec := range snap.Alerts {
		kinds[rec.ID] = rec.Severity
	}
	assert.Equal(t, alert.SeverityCritical, kinds[alert.KindMoveRare])
	assert.Equal(t, alert.SeverityAlert, kinds[alert.KindRangeBreak])
	assert.NotContains(t, kinds, alert.KindAllClear)

	require.Len(t, notifier.batches, 1)
	require.Len(t, notifier.batches[0], 2)
	for _, rec := range notifier.batches[0] {
		assert.NotEqual(t, alert.SeverityInfo, rec.Severity)
	}

	assert.Contains(t, ledger.state, alert.KindMoveRare)
	assert.Contains(t, ledger.state, alert.KindRangeBreak)
}

func TestEvaluateSuppressesRepeatsAcrossRuns(t *testing.T) {
	rates := &fakeRates{series: jumpSeries()}
	ledger := &fakeLedger{}
	notifier := &fakeNotifier{}
	m := newTestMonitor(t, rates, ledger, notifier, nil)

	first, err := m.Evaluate(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Alerts, 2)

	second, err := m.Evaluate(context.Background())
	require.NoError(t, err)

	// Both conditions still match, so the all-clear stays out, but
	// the ledger swallows the repeats.
	assert.Empty(t, second.Alerts)
	assert.Equal(t, 2, second.Diagnostics.Suppressed)
	assert.Len(t, notifier.batches, 1)
}

func TestEvaluateSeriesFailureDegradesToWaiting(t *testing.T) {
	rates := &fakeRates{err: errors.New("connection refused")}
	ledger := &fakeLedger{}
	notifier := &fakeNotifier{}
	m := newTestMonitor(t, rates, ledger, notifier, nil)

	snap, err := m.Evaluate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, alert.StatusWaiting, snap.Diagnostics.Status)
	assert.Equal(t, 0, snap.Diagnostics.PointCount)
	assert.Nil(t, snap.Latest)
	assert.Nil(t, snap.VolRegime)
	assert.Nil(t, snap.Behavior)
	assert.Empty(t, notifier.batches)
	assert.Contains(t, ledger.state, alert.KindWaiting)
}

func TestEvaluateLedgerLoadFailureAborts(t *testing.T) {
	rates := &fakeRates{series: jumpSeries()}
	ledger := &fakeLedger{loadErr: errors.New("redis down")}
	notifier := &fakeNotifier{}
	caster := &fakeCaster{}
	m := newTestMonitor(t, rates, ledger, notifier, caster)

	snap, err := m.Evaluate(context.Background())
	require.Error(t, err)
	assert.Nil(t, snap)
	assert.Empty(t, notifier.batches)
	assert.Empty(t, caster.payloads)

	_, ok := m.Last()
	assert.False(t, ok)
}

func TestEvaluateSaveFailureSkipsNotify(t *testing.T) {
	rates := &fakeRates{series: jumpSeries()}
	ledger := &fakeLedger{saveErr: errors.New("disk full")}
	notifier := &fakeNotifier{}
	caster := &fakeCaster{}
	m := newTestMonitor(t, rates, ledger, notifier, caster)

	snap, err := m.Evaluate(context.Background())
	require.Error(t, err)
	assert.Nil(t, snap)

	// Without durable cooldown state the same alert would fire again
	// next cycle, so nothing is sent or broadcast.
	assert.Empty(t, notifier.batches)
	assert.Empty(t, caster.payloads)
}

func TestLastTracksMostRecentSnapshot(t *testing.T) {
	rates := &fakeRates{series: flatSeries(58.0, 120)}
	m := newTestMonitor(t, rates, &fakeLedger{}, nil, nil)

	_, ok := m.Last()
	assert.False(t, ok)

	snap, err := m.Evaluate(context.Background())
	require.NoError(t, err)

	got, ok := m.Last()
	require.True(t, ok)
	assert.Same(t, snap, got)
	assert.Equal(t, snap.Diagnostics.EvaluationID, got.Diagnostics.EvaluationID)
}
