package market

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielpatrickdp/corps-sequencer/internal/state"
)

// #region flags
// Flags are the micro-signals that drive transitions once armed.
type Flags struct {
	Confirm   bool `json:"confirm" yaml:"confirm"`
	Pause     bool `json:"pause" yaml:"pause"`
	Resume    bool `json:"resume" yaml:"resume"`
	Negate    bool `json:"negate" yaml:"negate"`
	TargetHit bool `json:"target_hit" yaml:"target_hit"`
}

// Any reports whether at least one flag is set.
func (f Flags) Any() bool {
	return f.Confirm || f.Pause || f.Resume || f.Negate || f.TargetHit
}

// Merge returns the union of f and o.
func (f Flags) Merge(o Flags) Flags {
	return Flags{
		Confirm:   f.Confirm || o.Confirm,
		Pause:     f.Pause || o.Pause,
		Resume:    f.Resume || o.Resume,
		Negate:    f.Negate || o.Negate,
		TargetHit: f.TargetHit || o.TargetHit,
	}
}

// #endregion flags

// #region snapshot
// Snapshot is the pre-computed market and regime view consumed by one step.
// Upstream collaborators produce every field; the sequencer never retains it.
type Snapshot struct {
	Price             decimal.Decimal `json:"price"`
	ReferenceLevel    decimal.Decimal `json:"reference_level"`
	StructureScore    float64         `json:"structure_score"`     // 0-100
	CIExcludesZero    bool            `json:"ci_excludes_zero"`    // bootstrap CI excludes zero
	PermutationPValue float64         `json:"permutation_p_value"` // 0-1
	RegimeOpen        bool            `json:"regime_open"`
	TicksRemaining    int             `json:"ticks_remaining"`
	Flags             Flags           `json:"glitch_flags"`
	TriStar           float64         `json:"tri_star"` // structural-volatility composite
	TauStar           float64         `json:"tau_star"` // adverse-regime composite

	// Requested is an optional caller-requested target state.
	Requested state.State `json:"requested,omitempty"`
	Timestamp time.Time   `json:"timestamp,omitempty"`
}

// Distance returns |Price - ReferenceLevel|.
func (s Snapshot) Distance() decimal.Decimal {
	return s.Price.Sub(s.ReferenceLevel).Abs()
}

// #endregion snapshot

// #region tick
// Tick pairs a snapshot with the caller's monotonic ordinal.
type Tick struct {
	Tick     int64    `json:"tick"`
	Snapshot Snapshot `json:"snapshot"`
}

// #endregion tick
