package state

import "fmt"

// #region state
// State is one node of the sequencing machine. Exactly one state is current
// at any time; the zero value means "no state" and is used for optional
// requests.
type State string

const (
	Idle         State = "idle"
	Prep         State = "prep"
	Engaged      State = "engaged" // Jeté
	Paused       State = "paused"  // Fermata
	ClosedProfit State = "closed_profit"
	ClosedLoss   State = "closed_loss"
)

// All lists every valid state in declaration order.
var All = []State{Idle, Prep, Engaged, Paused, ClosedProfit, ClosedLoss}

// #endregion state

// #region parse
// Parse converts a wire name into a State. Unknown names are rejected so an
// invalid value never reaches the sequencer.
func Parse(s string) (State, error) {
	for _, st := range All {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown state %q", s)
}

// Valid reports whether s is one of the declared states.
func (s State) Valid() bool {
	_, err := Parse(string(s))
	return err == nil
}

// UnmarshalText lets State fields decode from JSON and YAML with validation.
func (s *State) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*s = ""
		return nil
	}
	st, err := Parse(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// #endregion parse

// #region label
// Label is the narrated name of the state.
func (s State) Label() string {
	switch s {
	case Idle:
		return "Idle"
	case Prep:
		return "Prep"
	case Engaged:
		return "Jeté"
	case Paused:
		return "Fermata"
	case ClosedProfit:
		return "ClosedProfit"
	case ClosedLoss:
		return "ClosedLoss"
	case "":
		return "-"
	default:
		return "Unknown(" + string(s) + ")"
	}
}

// Terminal reports whether s closes a cycle. Terminal states fold back to
// Idle within the same step and are never current afterwards.
func (s State) Terminal() bool {
	return s == ClosedProfit || s == ClosedLoss
}

// #endregion label
