package alert

import "time"

// =============================================================================
// Severity & Cooldowns
// =============================================================================

// Severity orders alert kinds by urgency.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityAlert    Severity = "ALERT"
	SeverityWatch    Severity = "WATCH"
	SeverityInfo     Severity = "INFO"
)

// Cooldown is the minimum gap before the same alert kind may fire
// again. Rarer signals re-arm faster: a second 3-sigma day within a
// shift is worth a second ping, a second "vol rising" is not.
func (s Severity) Cooldown() time.Duration {
	switch s {
	case SeverityCritical:
		return 12 * time.Hour
	case SeverityAlert:
		return 24 * time.Hour
	case SeverityWatch:
		return 24 * time.Hour
	default:
		return 6 * time.Hour
	}
}

// =============================================================================
// Alert Kinds
// =============================================================================

// Kind ids key the cooldown ledger. Each deviation tier is its own
// kind so tiers cool down independently.
const (
	KindMoveRare     = "move:rare"
	KindMoveLarge    = "move:large"
	KindMoveElevated = "move:elevated"
	KindVolJump      = "vol:jump"
	KindVolRising    = "vol:rising"
	KindRangeBreak   = "range:break"
	KindWaiting      = "system:waiting_for_history"
	KindAllClear     = "system:all_clear"
)

// =============================================================================
// Ledger
// =============================================================================

// Ledger maps kind ids to the instant that kind last fired. It is
// caller-owned state: Evaluate reads the given ledger and returns an
// updated copy, never mutating the input. Persistence, and serializing
// concurrent read-evaluate-write cycles over a shared ledger, are the
// caller's responsibility.
type Ledger map[string]time.Time

// Clone returns an independent copy. A nil ledger clones to an empty
// usable one.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// =============================================================================
// Output Types
// =============================================================================

// Record is one fired alert, shaped for direct rendering: what
// happened, why a reader should care, and what to do next.
type Record struct {
	ID        string             `json:"id"`
	Severity  Severity           `json:"severity"`
	Title     string             `json:"title"`
	Signal    string             `json:"signal"`
	WhyCare   string             `json:"why_care"`
	NextStep  string             `json:"next_step"`
	Timestamp time.Time          `json:"timestamp"`
	Meta      map[string]float64 `json:"meta,omitempty"`
}

// Status says whether the engine evaluated the full rule set.
type Status string

const (
	StatusLive    Status = "LIVE"
	StatusWaiting Status = "WAITING"
)

// Diagnostics exposes the intermediate figures behind one evaluation
// so a reader can audit why an alert did or did not fire.
type Diagnostics struct {
	Status       Status    `json:"status"`
	PointCount   int       `json:"point_count"`
	EvaluationID string    `json:"evaluation_id"`
	ZScore90     *float64  `json:"z_score_90"`
	Vol30Ann     *float64  `json:"vol30_ann"`
	Vol90Ann     *float64  `json:"vol90_ann"`
	VolRatio     *float64  `json:"vol_ratio"`
	Suppressed   int       `json:"suppressed"`
	EvaluatedAt  time.Time `json:"evaluated_at"`
}

// Result is one full evaluation: the alerts that cleared their
// cooldowns, the updated ledger for the caller to persist, and the
// audit trail.
type Result struct {
	Alerts      []Record    `json:"alerts"`
	FiredAt     Ledger      `json:"fired_at"`
	Diagnostics Diagnostics `json:"diagnostics"`
}
