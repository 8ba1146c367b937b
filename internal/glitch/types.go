package glitch

import (
	"github.com/shopspring/decimal"

	"github.com/danielpatrickdp/corps-sequencer/internal/market"
	"github.com/danielpatrickdp/corps-sequencer/internal/state"
)

// #region action
// Action is the kind of move an Intent asks the sequencer to make.
type Action string

const (
	ActionAdvance Action = "advance"
	ActionPause   Action = "pause"
	ActionResume  Action = "resume"
	ActionNegate  Action = "negate" // forced reset to idle
	ActionNone    Action = "none"   // stay put, re-narrate status
)

// #endregion action

// #region cue
// Cue names the trigger behind an event.
type Cue string

const (
	CueArm               Cue = "arm"
	CueConfirm           Cue = "confirm"
	CuePause             Cue = "pause"
	CueResume            Cue = "resume"
	CueNegate            Cue = "negate"
	CueTargetHit         Cue = "target_hit"
	CueDeadlineExhausted Cue = "deadline_exhausted"
	CueAdverseRegime     Cue = "adverse_regime"
	CuePriceInvalidation Cue = "price_invalidation"
	CueWaiting           Cue = "waiting"
	CueHolding           Cue = "holding"
	CueAdvance           Cue = "advance"
	CueTimeRegression    Cue = "time_regression"
	CueIllegalRequest    Cue = "illegal_request"
	CueRequestedClose    Cue = "requested_close"
)

// #endregion cue

// #region intent
// Intent is the interpreter's verdict for one step. To is set for advances.
type Intent struct {
	Action Action
	To     state.State
	Cue    Cue
	Reason string
}

// #endregion intent

// #region input
// Input is everything the interpreter may look at besides state and flags.
// Budget and ArmingPrice are copies; the interpreter cannot touch the
// sequencer that owns them.
type Input struct {
	Snapshot    market.Snapshot
	Budget      int             // ticks left after this step is charged
	ArmingPrice decimal.Decimal // price recorded when the sequence armed
}

// Exhausted reports whether the tick budget has run out.
func (in Input) Exhausted() bool {
	return in.Budget <= 0 || in.Snapshot.TicksRemaining <= 0
}

// #endregion input

// #region config
// Config holds the interpreter's reset thresholds.
type Config struct {
	AdverseTau           float64         // prep resets when tau* <= this
	InvalidationDistance decimal.Decimal // max |price - arming price|; zero disables
}

// DefaultConfig returns an adverse-regime floor of -10 and no price
// invalidation.
func DefaultConfig() Config {
	return Config{
		AdverseTau: -10.0,
	}
}

// #endregion config
