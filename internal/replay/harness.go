package replay

import (
	"fmt"

	"github.com/danielpatrickdp/corps-sequencer/internal/market"
	"github.com/danielpatrickdp/corps-sequencer/internal/narrator"
	"github.com/danielpatrickdp/corps-sequencer/internal/sequencer"
	"github.com/danielpatrickdp/corps-sequencer/internal/state"
)

// #region types
// Result captures the outcome of replaying one tick.
type Result struct {
	Tick  int64
	Event *narrator.Event // nil when an idle sequencer stayed idle

	// State and deadline after the step
	State    state.State
	Deadline int
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalSteps   int
	Silent       int
	Transitions  int
	Glitches     int
	Resets       int
	ClosedProfit int
	ClosedLoss   int
	FinalState   state.State
}

// #endregion types

// #region replay
// Replay feeds ticks through a fresh sequencer built from config. It is
// deterministic: the same config and ticks always yield the same results.
func Replay(config sequencer.Config, ticks []market.Tick, opts ...sequencer.Option) ([]Result, error) {
	seq, err := sequencer.New(config, opts...)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	results := make([]Result, 0, len(ticks))
	for _, t := range ticks {
		ev := seq.Step(t.Tick, t.Snapshot)
		results = append(results, Result{
			Tick:     t.Tick,
			Event:    ev,
			State:    seq.State(),
			Deadline: seq.Deadline(),
		})
	}
	return results, nil
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []Result) Summary {
	s := Summary{
		TotalSteps: len(results),
		FinalState: state.Idle,
	}
	for _, r := range results {
		s.FinalState = r.State
		if r.Event == nil {
			s.Silent++
			continue
		}
		switch r.Event.Kind {
		case narrator.KindTransition:
			s.Transitions++
		case narrator.KindGlitch:
			s.Glitches++
		case narrator.KindReset:
			s.Resets++
			switch r.Event.Terminal {
			case state.ClosedProfit:
				s.ClosedProfit++
			case state.ClosedLoss:
				s.ClosedLoss++
			}
		}
	}
	return s
}

// #endregion replay
