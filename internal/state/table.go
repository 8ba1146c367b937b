package state

// #region transition-table
// table lists the reachable targets per state, self-loops included.
var table = map[State][]State{
	Idle:         {Idle, Prep},
	Prep:         {Prep, Engaged, Idle},
	Engaged:      {Engaged, Paused, Idle, ClosedProfit, ClosedLoss},
	Paused:       {Paused, Engaged, Idle},
	ClosedProfit: {Idle},
	ClosedLoss:   {Idle},
}

// Targets returns a copy of the states reachable from from.
func Targets(from State) []State {
	t := table[from]
	out := make([]State, len(t))
	copy(out, t)
	return out
}

// Legal reports whether the machine may move from from to to in one step.
func Legal(from, to State) bool {
	for _, t := range table[from] {
		if t == to {
			return true
		}
	}
	return false
}

// #endregion transition-table
