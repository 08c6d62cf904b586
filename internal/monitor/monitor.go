package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/pesowatch/internal/alert"
	"github.com/wonny/pesowatch/internal/fxseries"
	"github.com/wonny/pesowatch/internal/regime"
	"github.com/wonny/pesowatch/internal/risk"
	"github.com/wonny/pesowatch/pkg/logger"
	"github.com/wonny/pesowatch/pkg/metrics"
)

// evaluationWindow is how many trailing closes feed one evaluation.
// The strict 90-day volatility needs 91 points; 120 leaves slack for
// holidays.
const evaluationWindow = 120

// behaviorWindow is the trailing slice the behavior classifier reads.
const behaviorWindow = 30

// SeriesProvider yields the trailing evaluation window.
type SeriesProvider interface {
	Recent(ctx context.Context, limit int) (fxseries.Series, error)
}

// LedgerStore abstracts where cooldown state lives: the Postgres
// table or the Redis hash, selected at wiring time.
type LedgerStore interface {
	Load(ctx context.Context) (alert.Ledger, error)
	Save(ctx context.Context, ledger alert.Ledger) error
}

// Notifier pushes fired alerts out-of-band. A nil Notifier is valid.
type Notifier interface {
	Notify(ctx context.Context, records []alert.Record) error
}

// Broadcaster fans a fresh snapshot out to live listeners. A nil
// Broadcaster is valid.
type Broadcaster interface {
	BroadcastJSON(v interface{})
}

// RegimeCall pairs a volatility regime with its explanation.
type RegimeCall struct {
	Label       regime.VolRegime `json:"label"`
	Explanation string           `json:"explanation"`
}

// BehaviorCall pairs a behavior label (nil when unclassifiable) with
// its explanation.
type BehaviorCall struct {
	Label       *regime.Behavior `json:"label"`
	Explanation string           `json:"explanation"`
}

// Snapshot is the full product of one evaluation, shaped for the API
// and the websocket feed. Everything in it is recomputed per
// evaluation; nothing here is ever persisted.
type Snapshot struct {
	Pair        string                `json:"pair"`
	Latest      *fxseries.Observation `json:"latest,omitempty"`
	Metrics     risk.Metrics          `json:"metrics"`
	VolRegime   *RegimeCall           `json:"vol_regime,omitempty"`
	Behavior    *BehaviorCall         `json:"behavior,omitempty"`
	Alerts      []alert.Record        `json:"alerts"`
	Diagnostics alert.Diagnostics     `json:"diagnostics"`
	EvaluatedAt time.Time             `json:"evaluated_at"`
}

// Monitor owns the ledger read-evaluate-write cycle. The engine is
// pure, so two concurrent evaluations sharing one ledger could both
// pass the same cooldown check and double-fire; the mutex serializes
// the whole sequence.
type Monitor struct {
	mu sync.Mutex

	engine   *alert.Engine
	rates    SeriesProvider
	ledger   LedgerStore
	notifier Notifier
	caster   Broadcaster
	metrics  *metrics.Recorder
	logger   *logger.Logger

	lastMu sync.RWMutex
	last   *Snapshot
}

// New creates a Monitor. notifier and caster may be nil.
func New(rates SeriesProvider, ledger LedgerStore, notifier Notifier, caster Broadcaster,
	rec *metrics.Recorder, log *logger.Logger) *Monitor {
	return &Monitor{
		engine:   alert.NewEngine(),
		rates:    rates,
		ledger:   ledger,
		notifier: notifier,
		caster:   caster,
		metrics:  rec,
		logger:   log.WithField("module", "monitor"),
	}
}

// Evaluate runs one full cycle: load window, load ledger, evaluate,
// persist the updated ledger, then notify and broadcast. A series
// read failure degrades to an empty-series evaluation (the engine's
// WAITING branch); a ledger failure aborts, because firing without
// durable cooldown state double-sends on the next run.
func (m *Monitor) Evaluate(ctx context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	series, err := m.rates.Recent(ctx, evaluationWindow)
	if err != nil {
		m.logger.WithError(err).Error("Failed to load series; evaluating empty window")
		series = nil
	}

	ledger, err := m.ledger.Load(ctx)
	if err != nil {
		m.metrics.RecordEvaluation("error")
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	result := m.engine.Evaluate(series, ledger, time.Now().UTC())

	if err := m.ledger.Save(ctx, result.FiredAt); err != nil {
		m.metrics.RecordEvaluation("error")
		return nil, fmt.Errorf("save ledger: %w", err)
	}

	snap := m.assemble(series, result)
	m.setLast(snap)

	m.metrics.RecordEvaluation(string(result.Diagnostics.Status))
	m.metrics.RecordSuppressed(result.Diagnostics.Suppressed)
	for _, rec := range result.Alerts {
		m.metrics.RecordAlert(string(rec.Severity), rec.ID)
	}

	m.notify(ctx, result.Alerts)
	if m.caster != nil {
		m.caster.BroadcastJSON(snap)
	}

	m.logger.WithFields(map[string]interface{}{
		"status":     result.Diagnostics.Status,
		"points":     result.Diagnostics.PointCount,
		"alerts":     len(result.Alerts),
		"suppressed": result.Diagnostics.Suppressed,
	}).Info("Evaluation completed")

	return snap, nil
}

// Last returns the most recent snapshot, if any evaluation ran.
func (m *Monitor) Last() (*Snapshot, bool) {
	m.lastMu.RLock()
	defer m.lastMu.RUnlock()
	return m.last, m.last != nil
}

func (m *Monitor) setLast(snap *Snapshot) {
	m.lastMu.Lock()
	defer m.lastMu.Unlock()
	m.last = snap
}

// notify forwards actionable records. INFO records (waiting,
// all-clear) stay on the dashboard only.
func (m *Monitor) notify(ctx context.Context, records []alert.Record) {
	if m.notifier == nil {
		return
	}

	actionable := make([]alert.Record, 0, len(records))
	for _, rec := range records {
		if rec.Severity != alert.SeverityInfo {
			actionable = append(actionable, rec)
		}
	}
	if len(actionable) == 0 {
		return
	}

	if err := m.notifier.Notify(ctx, actionable); err != nil {
		m.logger.WithError(err).Error("Failed to send notifications")
	}
}

// assemble builds the rendering snapshot around the engine result.
func (m *Monitor) assemble(series fxseries.Series, result alert.Result) *Snapshot {
	snap := &Snapshot{
		Pair:        "USD/PHP",
		Metrics:     risk.Compute(series),
		Alerts:      result.Alerts,
		Diagnostics: result.Diagnostics,
		EvaluatedAt: result.Diagnostics.EvaluatedAt,
	}

	if latest, ok := series.Latest(); ok {
		snap.Latest = &latest
	}

	// Regime reads the long-window volatility, falling back to the
	// short window early in a backfill.
	vol := snap.Metrics.Vol90Ann
	if vol == nil {
		vol = snap.Metrics.Vol30Ann
	}
	if vol != nil {
		label := regime.ClassifyVol(*vol)
		snap.VolRegime = &RegimeCall{Label: label, Explanation: label.Explanation()}
	}

	window := series.Tail(behaviorWindow)
	if len(window) > 0 {
		label, explanation := regime.ClassifyBehavior(window.Rates(), behaviorWindow)
		snap.Behavior = &BehaviorCall{Label: label, Explanation: explanation}
	}

	return snap
}
