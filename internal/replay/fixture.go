package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/corps-sequencer/internal/config"
	"github.com/danielpatrickdp/corps-sequencer/internal/market"
	"github.com/danielpatrickdp/corps-sequencer/internal/sequencer"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture. Steps are
// feed lines in the same shape the sequencer reads from stdin.
type Fixture struct {
	Description string            `json:"description"`
	Config      config.File       `json:"config"`
	Steps       []json.RawMessage `json:"steps"`
	Expected    []Expected        `json:"expected"`
}

// Expected is the outcome expected at one step. An empty Kind means the
// step must not emit an event.
type Expected struct {
	Tick int64  `json:"tick"`
	Kind string `json:"kind,omitempty"`
	To   string `json:"to,omitempty"`
	Cue  string `json:"cue,omitempty"`
}

// Mismatch describes one step whose outcome differs from the fixture.
type Mismatch struct {
	Index    int
	Expected Expected
	Got      Expected
}

func (m Mismatch) String() string {
	return fmt.Sprintf("step %d (tick %d): expected kind=%q to=%q cue=%q, got kind=%q to=%q cue=%q",
		m.Index, m.Expected.Tick, m.Expected.Kind, m.Expected.To, m.Expected.Cue,
		m.Got.Kind, m.Got.To, m.Got.Cue)
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// SequencerConfig applies the fixture's overrides to the defaults.
func (f *Fixture) SequencerConfig() (sequencer.Config, error) {
	s := config.Default()
	if err := f.Config.Apply(&s); err != nil {
		return sequencer.Config{}, fmt.Errorf("fixture config: %w", err)
	}
	if err := s.Sequencer.Validate(); err != nil {
		return sequencer.Config{}, fmt.Errorf("fixture config: %w", err)
	}
	return s.Sequencer, nil
}

// Ticks validates and decodes every step line.
func (f *Fixture) Ticks(dec *market.Decoder) ([]market.Tick, error) {
	ticks := make([]market.Tick, 0, len(f.Steps))
	for i, raw := range f.Steps {
		t, err := dec.DecodeLine(raw)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		ticks = append(ticks, t)
	}
	return ticks, nil
}

// #endregion fixture-loader

// #region compare

// Outcome flattens a result into the fixture's expected shape.
func Outcome(r Result) Expected {
	out := Expected{Tick: r.Tick}
	if r.Event != nil {
		out.Kind = string(r.Event.Kind)
		out.To = string(r.Event.To)
		out.Cue = r.Event.Cue
	}
	return out
}

// Compare checks results against expectations step by step. An empty Cue in
// an expectation matches any cue.
func Compare(results []Result, expected []Expected) ([]Mismatch, error) {
	if len(results) != len(expected) {
		return nil, fmt.Errorf("expected %d results, got %d", len(expected), len(results))
	}
	var out []Mismatch
	for i, want := range expected {
		got := Outcome(results[i])
		if got.Tick != want.Tick || got.Kind != want.Kind || got.To != want.To ||
			(want.Cue != "" && got.Cue != want.Cue) {
			out = append(out, Mismatch{Index: i, Expected: want, Got: got})
		}
	}
	return out, nil
}

// #endregion compare
