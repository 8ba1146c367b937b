package state

import (
	"encoding/json"
	"testing"
)

func TestLegalSelfLoops(t *testing.T) {
	for _, s := range []State{Idle, Prep, Engaged, Paused} {
		if !Legal(s, s) {
			t.Errorf("expected %s -> %s to be legal", s, s)
		}
	}
}

func TestIdleCannotJumpToEngaged(t *testing.T) {
	if Legal(Idle, Engaged) {
		t.Fatal("idle -> engaged must be illegal")
	}
	if Legal(Idle, Paused) {
		t.Fatal("idle -> paused must be illegal")
	}
}

func TestTerminalStatesOnlyFoldToIdle(t *testing.T) {
	for _, s := range []State{ClosedProfit, ClosedLoss} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
		got := Targets(s)
		if len(got) != 1 || got[0] != Idle {
			t.Errorf("%s targets = %v, want [idle]", s, got)
		}
	}
}

func TestTargetsReturnsCopy(t *testing.T) {
	got := Targets(Prep)
	got[0] = ClosedLoss
	if Targets(Prep)[0] != Prep {
		t.Fatal("Targets must not expose the table")
	}
}

func TestParse(t *testing.T) {
	st, err := Parse("paused")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if st != Paused {
		t.Fatalf("expected paused, got %s", st)
	}
	if _, err := Parse("jete"); err == nil {
		t.Fatal("expected error for unknown state")
	}
}

func TestUnmarshalRejectsUnknown(t *testing.T) {
	var v struct {
		Requested State `json:"requested"`
	}
	if err := json.Unmarshal([]byte(`{"requested":"engaged"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Requested != Engaged {
		t.Fatalf("expected engaged, got %q", v.Requested)
	}
	if err := json.Unmarshal([]byte(`{"requested":"flying"}`), &v); err == nil {
		t.Fatal("expected error for unknown state name")
	}
}

func TestLabels(t *testing.T) {
	cases := map[State]string{
		Idle:    "Idle",
		Engaged: "Jeté",
		Paused:  "Fermata",
		"":      "-",
	}
	for st, want := range cases {
		if got := st.Label(); got != want {
			t.Errorf("%q.Label() = %q, want %q", st, got, want)
		}
	}
}
