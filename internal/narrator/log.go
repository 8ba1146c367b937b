// Package narrator keeps the ordered event history of one sequencer and
// renders events as single human-readable lines.
package narrator

import "fmt"

// #region view
// View is the read-only face of a Log handed to callers.
type View interface {
	All() []Event
	Len() int
	Last() (Event, bool)
}

// #endregion view

// #region log
// Log is an append-only, insertion-ordered event history.
type Log struct {
	events []Event
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append adds e to the end of the log.
func (l *Log) Append(e Event) {
	if e.Deadline != nil {
		d := *e.Deadline
		e.Deadline = &d
	}
	l.events = append(l.events, e)
}

// All returns a copy of every event in insertion order.
func (l *Log) All() []Event {
	out := make([]Event, len(l.events))
	for i, e := range l.events {
		if e.Deadline != nil {
			d := *e.Deadline
			e.Deadline = &d
		}
		out[i] = e
	}
	return out
}

// Len returns the number of events.
func (l *Log) Len() int {
	return len(l.events)
}

// Last returns the most recent event.
func (l *Log) Last() (Event, bool) {
	if len(l.events) == 0 {
		return Event{}, false
	}
	e := l.events[len(l.events)-1]
	if e.Deadline != nil {
		d := *e.Deadline
		e.Deadline = &d
	}
	return e, true
}

// Clear drops the history. Only called explicitly between sessions.
func (l *Log) Clear() {
	l.events = nil
}

// #endregion log

// #region render
// Render formats e as
//
//	[<sequence>] STATE: <from> -> <to> | CUE: <cue> | NARRATION: <text>
//
// using only the event's own fields.
func Render(e Event) string {
	return fmt.Sprintf("[%d] STATE: %s -> %s | CUE: %s | NARRATION: %s",
		e.Sequence, e.From.Label(), e.To.Label(), e.Cue, e.Narration)
}

// RenderAll renders every event of v, one line each.
func RenderAll(v View) []string {
	events := v.All()
	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = Render(e)
	}
	return lines
}

// #endregion render
