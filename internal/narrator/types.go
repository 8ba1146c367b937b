package narrator

import "github.com/danielpatrickdp/corps-sequencer/internal/state"

// #region kind
// Kind distinguishes committed moves from narrated rejections.
type Kind string

const (
	KindTransition Kind = "transition"
	KindGlitch     Kind = "glitch"
	KindReset      Kind = "reset"
)

// #endregion kind

// #region event
// Event is one immutable entry of the sequencer's audit trail. Sequence is
// assigned by the sequencer and strictly increases within a run.
type Event struct {
	Sequence  uint64      `json:"sequence"`
	Tick      int64       `json:"tick"`
	Kind      Kind        `json:"kind"`
	From      state.State `json:"from_state"`
	To        state.State `json:"to_state,omitempty"` // empty for glitches
	Cue       string      `json:"cue"`
	Narration string      `json:"narration"`
	Deadline  *int        `json:"deadline,omitempty"`
	Terminal  state.State `json:"terminal,omitempty"` // closed_profit/closed_loss passed through on a reset
}

// DeadlineValue returns the deadline and whether one was recorded.
func (e Event) DeadlineValue() (int, bool) {
	if e.Deadline == nil {
		return 0, false
	}
	return *e.Deadline, true
}

// #endregion event
