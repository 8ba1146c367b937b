// Package glitch maps glitch flags to transition intents. It holds the
// business rules for every armed state and nothing else: no time, no
// bookkeeping, no mutation.
package glitch

import (
	"fmt"

	"github.com/danielpatrickdp/corps-sequencer/internal/market"
	"github.com/danielpatrickdp/corps-sequencer/internal/state"
)

// #region interpreter
// Interpreter evaluates flags against the current state.
type Interpreter struct {
	config Config
}

// NewInterpreter creates an interpreter with the given thresholds.
func NewInterpreter(config Config) *Interpreter {
	return &Interpreter{config: config}
}

// Interpret returns the intent for st given flags and in. Negate is checked
// first in every armed state so a synthetic negate always reaches idle.
func (ip *Interpreter) Interpret(st state.State, flags market.Flags, in Input) Intent {
	switch st {
	case state.Prep:
		return ip.fromPrep(flags, in)
	case state.Engaged:
		return ip.fromEngaged(flags, in)
	case state.Paused:
		return ip.fromPaused(flags, in)
	default:
		return Intent{Action: ActionNone, Cue: CueWaiting, Reason: fmt.Sprintf("no glitch rules for %s", st.Label())}
	}
}

// #endregion interpreter

// #region prep
func (ip *Interpreter) fromPrep(flags market.Flags, in Input) Intent {
	snap := in.Snapshot
	switch {
	case flags.Negate:
		return negate(CueNegate, "negate signal during prep")
	case snap.TauStar <= ip.config.AdverseTau:
		return negate(CueAdverseRegime, fmt.Sprintf("tau* %.2f at or below %.2f", snap.TauStar, ip.config.AdverseTau))
	case ip.invalidated(in):
		return negate(CuePriceInvalidation, fmt.Sprintf("price %s drifted beyond %s of arming price %s",
			snap.Price, ip.config.InvalidationDistance, in.ArmingPrice))
	case flags.Confirm:
		return Intent{Action: ActionAdvance, To: state.Engaged, Cue: CueConfirm, Reason: "confirmation glitch"}
	case in.Exhausted():
		return negate(CueDeadlineExhausted, "no confirmation before the deadline")
	default:
		return Intent{Action: ActionNone, Cue: CueWaiting, Reason: fmt.Sprintf("awaiting confirmation, %d ticks left", in.Budget)}
	}
}

// #endregion prep

// #region engaged
func (ip *Interpreter) fromEngaged(flags market.Flags, in Input) Intent {
	switch {
	case flags.Negate:
		return negate(CueNegate, "negate signal while engaged")
	case flags.Pause:
		return Intent{Action: ActionPause, To: state.Paused, Cue: CuePause, Reason: "pause glitch"}
	case flags.TargetHit:
		return Intent{Action: ActionAdvance, To: state.ClosedProfit, Cue: CueTargetHit, Reason: "target reached"}
	case ip.invalidated(in):
		return Intent{Action: ActionAdvance, To: state.ClosedLoss, Cue: CuePriceInvalidation,
			Reason: fmt.Sprintf("price %s beyond %s of entry %s", in.Snapshot.Price, ip.config.InvalidationDistance, in.ArmingPrice)}
	case in.Exhausted():
		return negate(CueDeadlineExhausted, "deadline exhausted while engaged")
	default:
		return Intent{Action: ActionNone, Cue: CueAdvance, Reason: fmt.Sprintf("carrying through, %d ticks left", in.Budget)}
	}
}

// #endregion engaged

// #region paused
func (ip *Interpreter) fromPaused(flags market.Flags, in Input) Intent {
	switch {
	case flags.Negate:
		return negate(CueNegate, "negate signal during fermata")
	case flags.Pause:
		return Intent{Action: ActionNone, Cue: CueHolding, Reason: "pause signal still present"}
	default:
		return Intent{Action: ActionResume, To: state.Engaged, Cue: CueResume, Reason: "pause released"}
	}
}

// #endregion paused

// #region helpers
func negate(cue Cue, reason string) Intent {
	return Intent{Action: ActionNegate, To: state.Idle, Cue: cue, Reason: reason}
}

// invalidated reports whether price has left the allowed band around the
// arming price. A zero distance disables the check.
func (ip *Interpreter) invalidated(in Input) bool {
	if !ip.config.InvalidationDistance.IsPositive() {
		return false
	}
	return in.Snapshot.Price.Sub(in.ArmingPrice).Abs().GreaterThan(ip.config.InvalidationDistance)
}

// #endregion helpers
