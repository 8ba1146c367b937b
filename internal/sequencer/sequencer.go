// Package sequencer is the elastic-deadline state machine. It arms on the
// integrity gate, advances on glitch intents and narrates every committed
// or rejected step into its own event log.
//
// A Sequencer is single-threaded: callers serialize Step calls, one per
// market tick. Instruments never share an instance.
package sequencer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielpatrickdp/corps-sequencer/internal/gate"
	"github.com/danielpatrickdp/corps-sequencer/internal/glitch"
	"github.com/danielpatrickdp/corps-sequencer/internal/market"
	"github.com/danielpatrickdp/corps-sequencer/internal/narrator"
	"github.com/danielpatrickdp/corps-sequencer/internal/state"
)

// #region sequencer
// Sequencer owns the current state, the deadline, the arming price, the
// last accepted tick and the event log.
type Sequencer struct {
	config Config
	gate   *gate.Gate
	interp *glitch.Interpreter

	current     state.State
	deadline    int
	armingPrice decimal.Decimal
	armed       bool
	pausedTicks int

	lastTick  int64
	lastStamp time.Time
	started   bool
	seq       uint64

	log       *narrator.Log
	observers []Observer
}

// New validates config and returns an idle sequencer.
func New(config Config, opts ...Option) (*Sequencer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("sequencer config: %w", err)
	}
	s := &Sequencer{
		config:  config,
		gate:    gate.NewGate(config.Gate),
		interp:  glitch.NewInterpreter(config.Glitch),
		current: state.Idle,
		log:     narrator.NewLog(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// #endregion sequencer

// #region step
// Step consumes one snapshot at the caller's tick ordinal. It returns the
// emitted event, or nil when an idle sequencer stays idle. A step either
// commits exactly one transition or is rejected as a glitch with no state
// change.
func (s *Sequencer) Step(tick int64, snap market.Snapshot) *narrator.Event {
	if s.started && tick <= s.lastTick {
		return s.glitch(tick, fmt.Sprintf("tick %d does not advance past %d; step rejected", tick, s.lastTick),
			glitch.CueTimeRegression)
	}
	if !snap.Timestamp.IsZero() && snap.Timestamp.Before(s.lastStamp) {
		return s.glitch(tick, fmt.Sprintf("timestamp %s is earlier than %s; step rejected",
			snap.Timestamp.Format(time.RFC3339Nano), s.lastStamp.Format(time.RFC3339Nano)), glitch.CueTimeRegression)
	}

	flags := snap.Flags
	forceLoss := false
	if req := snap.Requested; req != "" {
		if !state.Legal(s.current, req) {
			if ev := s.exhaustedReset(tick, snap); ev != nil {
				return ev
			}
			return s.glitch(tick, fmt.Sprintf("requested %s from %s; expected %s",
				req.Label(), s.current.Label(), expected(s.current)), glitch.CueIllegalRequest)
		}
		var extra market.Flags
		extra, forceLoss = requestFlags(s.current, req)
		flags = flags.Merge(extra)
		if s.current == state.Paused && req == state.Engaged {
			flags.Pause = false
		}
	}
	if implied := impliedTarget(s.current, flags); implied != "" {
		if ev := s.exhaustedReset(tick, snap); ev != nil {
			return ev
		}
		return s.glitch(tick, fmt.Sprintf("glitch flags imply %s from %s; expected %s",
			implied.Label(), s.current.Label(), expected(s.current)), glitch.CueIllegalRequest)
	}

	s.accept(tick, snap)

	if s.current == state.Idle {
		if flags.Negate {
			return nil
		}
		return s.arm(tick, snap)
	}
	return s.advance(tick, snap, flags, forceLoss)
}

func (s *Sequencer) accept(tick int64, snap market.Snapshot) {
	s.lastTick = tick
	s.started = true
	if !snap.Timestamp.IsZero() {
		s.lastStamp = snap.Timestamp
	}
}

// exhaustedReset fails closed: a charged state with no budget left resets
// rather than rejecting the step, so a stuck flag cannot hold a sequence
// past its deadline. It returns nil when the budget is not exhausted.
func (s *Sequencer) exhaustedReset(tick int64, snap market.Snapshot) *narrator.Event {
	if s.current != state.Prep && s.current != state.Engaged {
		return nil
	}
	in := glitch.Input{Snapshot: snap, Budget: s.deadline - 1, ArmingPrice: s.armingPrice}
	if !in.Exhausted() {
		return nil
	}
	s.accept(tick, snap)
	return s.reset(tick, snap, glitch.Intent{
		Action: glitch.ActionNegate,
		To:     state.Idle,
		Cue:    glitch.CueDeadlineExhausted,
		Reason: "deadline exhausted with an illegal transition pending",
	}, "")
}

// #endregion step

// #region arm
func (s *Sequencer) arm(tick int64, snap market.Snapshot) *narrator.Event {
	decision := s.gate.Evaluate(snap)
	for _, o := range s.observers {
		o.OnGate(tick, decision)
	}
	if !decision.Allowed {
		return nil
	}

	d := s.config.Deadline.Compute(snap.TriStar, snap.TauStar)
	s.current = state.Prep
	s.deadline = d
	s.armingPrice = snap.Price
	s.armed = true
	s.pausedTicks = 0

	return s.emit(tick, narrator.Event{
		Kind: narrator.KindTransition,
		From: state.Idle,
		To:   state.Prep,
		Cue:  string(glitch.CueArm),
		Narration: fmt.Sprintf("Armed at %s against reference %s; elastic deadline %d ticks (tri* %.2f, tau* %.2f)",
			snap.Price, snap.ReferenceLevel, d, snap.TriStar, snap.TauStar),
		Deadline: intPtr(d),
	})
}

// #endregion arm

// #region advance
func (s *Sequencer) advance(tick int64, snap market.Snapshot, flags market.Flags, forceLoss bool) *narrator.Event {
	from := s.current
	charged := from != state.Paused
	budget := s.deadline
	if charged {
		budget--
	}

	intent := s.interp.Interpret(from, flags, glitch.Input{
		Snapshot:    snap,
		Budget:      budget,
		ArmingPrice: s.armingPrice,
	})
	if forceLoss && intent.Action != glitch.ActionNegate {
		intent = glitch.Intent{Action: glitch.ActionAdvance, To: state.ClosedLoss, Cue: glitch.CueRequestedClose, Reason: "loss close requested"}
	}

	switch intent.Action {
	case glitch.ActionNegate:
		return s.reset(tick, snap, intent, "")

	case glitch.ActionAdvance:
		if intent.To.Terminal() {
			return s.reset(tick, snap, intent, intent.To)
		}
		s.deadline = budget
		return s.transition(tick, from, intent, fmt.Sprintf("Jeté at %s on confirmation, %d ticks left", snap.Price, budget))

	case glitch.ActionPause:
		s.deadline = budget
		s.pausedTicks = snap.TicksRemaining
		return s.transition(tick, from, intent, fmt.Sprintf("Fermata at %s with %d ticks on the clock, deadline %d",
			snap.Price, snap.TicksRemaining, budget))

	case glitch.ActionResume:
		resumed := min(s.deadline, snap.TicksRemaining)
		if resumed <= 0 {
			return s.reset(tick, snap, glitch.Intent{
				Action: glitch.ActionNegate,
				To:     state.Idle,
				Cue:    glitch.CueDeadlineExhausted,
				Reason: "no ticks left to resume",
			}, "")
		}
		prev := s.deadline
		s.deadline = resumed
		return s.transition(tick, from, intent, fmt.Sprintf("Jeté resumed at %s after fermata at %d ticks; deadline %d -> %d",
			snap.Price, s.pausedTicks, prev, resumed))

	default:
		if charged {
			s.deadline = budget
		}
		intent.To = from
		return s.transition(tick, from, intent, waitingNarration(from, intent, snap, s.deadline))
	}
}

func waitingNarration(from state.State, intent glitch.Intent, snap market.Snapshot, d int) string {
	switch from {
	case state.Prep:
		return fmt.Sprintf("Prep: awaiting confirmation at %s, %d ticks left", snap.Price, d)
	case state.Paused:
		return fmt.Sprintf("Fermata: pause still signalled, deadline held at %d", d)
	case state.Engaged:
		return fmt.Sprintf("Jeté: carrying through at %s, %d ticks left", snap.Price, d)
	default:
		return intent.Reason
	}
}

// #endregion advance

// #region transition
func (s *Sequencer) transition(tick int64, from state.State, intent glitch.Intent, narration string) *narrator.Event {
	s.current = intent.To
	return s.emit(tick, narrator.Event{
		Kind:      narrator.KindTransition,
		From:      from,
		To:        intent.To,
		Cue:       string(intent.Cue),
		Narration: narration,
		Deadline:  intPtr(s.deadline),
	})
}

// #endregion transition

// #region reset
// reset is the single path back to idle. The event is built from the
// pre-mutation state before any field is cleared.
func (s *Sequencer) reset(tick int64, snap market.Snapshot, intent glitch.Intent, terminal state.State) *narrator.Event {
	var narration string
	switch terminal {
	case state.ClosedProfit:
		narration = fmt.Sprintf("Corps Reset from %s: closed in profit at %s (entry %s); %s",
			s.current.Label(), snap.Price, s.armingPrice, intent.Reason)
	case state.ClosedLoss:
		narration = fmt.Sprintf("Corps Reset from %s: closed at a loss at %s (entry %s); %s",
			s.current.Label(), snap.Price, s.armingPrice, intent.Reason)
	default:
		narration = fmt.Sprintf("Corps Reset from %s: %s", s.current.Label(), intent.Reason)
	}
	ev := narrator.Event{
		Kind:      narrator.KindReset,
		From:      s.current,
		To:        state.Idle,
		Cue:       string(intent.Cue),
		Narration: narration,
		Terminal:  terminal,
	}

	s.current = state.Idle
	s.deadline = 0
	s.armingPrice = decimal.Zero
	s.armed = false
	s.pausedTicks = 0

	return s.emit(tick, ev)
}

// #endregion reset

// #region emit
func (s *Sequencer) glitch(tick int64, narration string, cue glitch.Cue) *narrator.Event {
	return s.emit(tick, narrator.Event{
		Kind:      narrator.KindGlitch,
		From:      s.current,
		Cue:       string(cue),
		Narration: narration,
	})
}

func (s *Sequencer) emit(tick int64, ev narrator.Event) *narrator.Event {
	s.seq++
	ev.Sequence = s.seq
	ev.Tick = tick
	s.log.Append(ev)
	for _, o := range s.observers {
		o.OnEvent(ev)
	}
	return &ev
}

// #endregion emit

// #region accessors
// State returns the current state.
func (s *Sequencer) State() state.State { return s.current }

// Deadline returns the remaining tick budget; zero while idle.
func (s *Sequencer) Deadline() int { return s.deadline }

// ArmingPrice returns the price recorded at arming, if armed.
func (s *Sequencer) ArmingPrice() (decimal.Decimal, bool) {
	return s.armingPrice, s.armed
}

// PausedTicks returns the caller countdown stored when the sequence paused.
func (s *Sequencer) PausedTicks() int { return s.pausedTicks }

// LastTick returns the last accepted tick ordinal.
func (s *Sequencer) LastTick() (int64, bool) { return s.lastTick, s.started }

// Config returns the configuration the sequencer runs with.
func (s *Sequencer) Config() Config { return s.config }

// Log returns a read-only view of the event history.
func (s *Sequencer) Log() narrator.View { return s.log }

// Events returns a copy of the event history.
func (s *Sequencer) Events() []narrator.Event { return s.log.All() }

// ClearLog drops the event history between sessions. Sequence numbers keep
// increasing.
func (s *Sequencer) ClearLog() { s.log.Clear() }

// #endregion accessors

// #region helpers
// requestFlags translates a legal requested target into the flag that
// produces it. The second result asks for a forced loss close, which has no
// flag of its own.
func requestFlags(from, to state.State) (market.Flags, bool) {
	if from == to {
		switch from {
		case state.Paused:
			return market.Flags{Pause: true}, false
		case state.Idle:
			return market.Flags{Negate: true}, false
		}
		return market.Flags{}, false
	}
	switch to {
	case state.Idle:
		return market.Flags{Negate: true}, false
	case state.Engaged:
		if from == state.Paused {
			return market.Flags{Resume: true}, false
		}
		return market.Flags{Confirm: true}, false
	case state.Paused:
		return market.Flags{Pause: true}, false
	case state.ClosedProfit:
		return market.Flags{TargetHit: true}, false
	case state.ClosedLoss:
		return market.Flags{}, true
	default:
		return market.Flags{}, false
	}
}

// impliedTarget returns a state the flags point at that is not reachable from
// from. Negate always wins, and idle does not interpret flags.
func impliedTarget(from state.State, flags market.Flags) state.State {
	if flags.Negate {
		return ""
	}
	switch from {
	case state.Prep:
		if flags.Pause {
			return state.Paused
		}
		if flags.TargetHit {
			return state.ClosedProfit
		}
	case state.Paused:
		if flags.TargetHit {
			return state.ClosedProfit
		}
	}
	return ""
}

func expected(from state.State) string {
	targets := state.Targets(from)
	names := make([]string, 0, len(targets))
	for _, t := range targets {
		if t != from {
			names = append(names, t.Label())
		}
	}
	if len(names) == 0 {
		return "no transition"
	}
	return strings.Join(names, " or ")
}

func intPtr(v int) *int { return &v }

// #endregion helpers
