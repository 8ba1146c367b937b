package narrator

import (
	"testing"

	"github.com/danielpatrickdp/corps-sequencer/internal/state"
)

func intPtr(v int) *int { return &v }

func TestRenderTransition(t *testing.T) {
	e := Event{
		Sequence:  3,
		Kind:      KindTransition,
		From:      state.Prep,
		To:        state.Engaged,
		Cue:       "confirm",
		Narration: "Jeté on confirmation",
		Deadline:  intPtr(4),
	}

	got := Render(e)
	want := "[3] STATE: Prep -> Jeté | CUE: confirm | NARRATION: Jeté on confirmation"
	if got != want {
		t.Fatalf("Render:\n got %q\nwant %q", got, want)
	}
}

func TestRenderGlitchHasNoTarget(t *testing.T) {
	e := Event{
		Sequence:  9,
		Kind:      KindGlitch,
		From:      state.Paused,
		Cue:       "time_regression",
		Narration: "tick 4 does not advance past 5",
	}

	got := Render(e)
	want := "[9] STATE: Fermata -> - | CUE: time_regression | NARRATION: tick 4 does not advance past 5"
	if got != want {
		t.Fatalf("Render:\n got %q\nwant %q", got, want)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	e := Event{Sequence: 1, Kind: KindReset, From: state.Engaged, To: state.Idle, Cue: "negate", Narration: "Corps Reset"}
	if Render(e) != Render(e) {
		t.Fatal("render must be deterministic")
	}
}

func TestLogPreservesOrder(t *testing.T) {
	l := NewLog()
	for i := uint64(1); i <= 5; i++ {
		l.Append(Event{Sequence: i})
	}

	all := l.All()
	if len(all) != 5 {
		t.Fatalf("expected 5 events, got %d", len(all))
	}
	for i, e := range all {
		if e.Sequence != uint64(i+1) {
			t.Fatalf("position %d holds sequence %d", i, e.Sequence)
		}
	}
}

func TestLogAllIsACopy(t *testing.T) {
	l := NewLog()
	l.Append(Event{Sequence: 1, Narration: "original", Deadline: intPtr(5)})

	view := l.All()
	view[0].Narration = "tampered"
	*view[0].Deadline = 99

	again := l.All()
	if again[0].Narration != "original" {
		t.Fatal("external edits leaked into the log")
	}
	if d, _ := again[0].DeadlineValue(); d != 5 {
		t.Fatalf("deadline leaked: %d", d)
	}
}

func TestLogAppendCopiesDeadline(t *testing.T) {
	l := NewLog()
	d := 4
	l.Append(Event{Sequence: 1, Deadline: &d})
	d = 0

	got, ok := l.Last()
	if !ok {
		t.Fatal("expected an event")
	}
	if v, _ := got.DeadlineValue(); v != 4 {
		t.Fatalf("expected deadline 4, got %d", v)
	}
}

func TestLogClear(t *testing.T) {
	l := NewLog()
	l.Append(Event{Sequence: 1})
	l.Clear()

	if l.Len() != 0 {
		t.Fatalf("expected empty log, got %d", l.Len())
	}
	if _, ok := l.Last(); ok {
		t.Fatal("expected no last event")
	}
}

func TestRenderAll(t *testing.T) {
	l := NewLog()
	l.Append(Event{Sequence: 1, From: state.Idle, To: state.Prep, Cue: "arm", Narration: "armed"})
	l.Append(Event{Sequence: 2, From: state.Prep, To: state.Idle, Cue: "negate", Narration: "Corps Reset"})

	lines := RenderAll(l)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[1] != "[2] STATE: Prep -> Idle | CUE: negate | NARRATION: Corps Reset" {
		t.Fatalf("unexpected line %q", lines[1])
	}
}
