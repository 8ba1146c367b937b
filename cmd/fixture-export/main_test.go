package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/danielpatrickdp/corps-sequencer/internal/config"
	"github.com/danielpatrickdp/corps-sequencer/internal/logging"
	"github.com/danielpatrickdp/corps-sequencer/internal/market"
	"github.com/danielpatrickdp/corps-sequencer/internal/replay"
	"github.com/danielpatrickdp/corps-sequencer/internal/sequencer"
	"github.com/danielpatrickdp/corps-sequencer/internal/store"
)

var lines = []string{
	`{"tick":1,"price":"100.20","reference_level":"100.00","structure_score":90,"ci_excludes_zero":true,"permutation_p_value":0.01,"regime_open":false,"ticks_remaining":20,"tri_star":1.0,"tau_star":0}`,
	`{"tick":2,"price":"100.20","reference_level":"100.00","structure_score":90,"ci_excludes_zero":true,"permutation_p_value":0.01,"regime_open":true,"ticks_remaining":20,"tri_star":1.0,"tau_star":-8.0}`,
	`{"tick":3,"price":"100.30","reference_level":"100.00","structure_score":90,"ci_excludes_zero":true,"permutation_p_value":0.01,"regime_open":true,"ticks_remaining":19,"tri_star":1.0,"tau_star":-8.0,"glitch_flags":{"pause":true}}`,
	`{"tick":4,"price":"100.30","reference_level":"100.00","structure_score":90,"ci_excludes_zero":true,"permutation_p_value":0.01,"regime_open":true,"ticks_remaining":18,"tri_star":1.0,"tau_star":-8.0,"glitch_flags":{"confirm":true}}`,
	`{"tick":5,"price":"100.10","reference_level":"100.00","structure_score":90,"ci_excludes_zero":true,"permutation_p_value":0.01,"regime_open":true,"ticks_remaining":17,"tri_star":1.0,"tau_star":-8.0,"requested":"closed_loss"}`,
}

// recordSession drives a sequencer the way the run command does and writes
// every step to a fresh audit database.
func recordSession(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	audit, err := store.NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer audit.Close()

	s := config.Default()
	s.Sequencer.Gate.ProximityEpsilon = decimal.RequireFromString("0.75")
	cfgJSON, _ := json.Marshal(s.ToFile())
	sess, err := audit.StartSession("ES", string(cfgJSON))
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	seq, err := sequencer.New(s.Sequencer)
	if err != nil {
		t.Fatalf("sequencer.New: %v", err)
	}
	dec, err := market.NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	for _, l := range lines {
		tk, err := dec.DecodeLine([]byte(l))
		if err != nil {
			t.Fatalf("DecodeLine: %v", err)
		}
		ev := seq.Step(tk.Tick, tk.Snapshot)
		if err := logging.LogStep(audit.DB(), logging.StepEntry{
			SessionID: sess.SessionID, Tick: tk.Tick, SnapshotJSON: l, Event: ev,
		}); err != nil {
			t.Fatalf("LogStep: %v", err)
		}
	}
	return dbPath
}

func TestExportReplaysClean(t *testing.T) {
	dbPath := recordSession(t)
	out := filepath.Join(t.TempDir(), "fixture.json")

	if err := run(dbPath, "", out, ""); err != nil {
		t.Fatalf("run: %v", err)
	}

	f, err := replay.LoadFixture(out)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if len(f.Steps) != len(lines) || len(f.Expected) != len(lines) {
		t.Fatalf("expected %d steps, got %d/%d", len(lines), len(f.Steps), len(f.Expected))
	}
	if f.Expected[0].Kind != "" {
		t.Errorf("vetoed first step should export as silent, got %+v", f.Expected[0])
	}
	if f.Expected[2].Kind != "glitch" || f.Expected[2].Cue != "illegal_request" {
		t.Errorf("expected illegal pause glitch at step 3, got %+v", f.Expected[2])
	}
	if f.Expected[4].Kind != "reset" || f.Expected[4].Cue != "requested_close" {
		t.Errorf("expected requested loss close at step 5, got %+v", f.Expected[4])
	}

	cfg, err := f.SequencerConfig()
	if err != nil {
		t.Fatalf("SequencerConfig: %v", err)
	}
	dec, _ := market.NewDecoder()
	ticks, err := f.Ticks(dec)
	if err != nil {
		t.Fatalf("Ticks: %v", err)
	}
	results, err := replay.Replay(cfg, ticks)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	mm, err := replay.Compare(results, f.Expected)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	for _, m := range mm {
		t.Error(m.String())
	}
}

func TestExportUnknownSession(t *testing.T) {
	dbPath := recordSession(t)
	if err := run(dbPath, "missing", filepath.Join(t.TempDir(), "f.json"), ""); err == nil {
		t.Fatal("expected error for unknown session")
	}
}
