package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFromYAML(t *testing.T) {
	path := writeFile(t, "seq.yaml", `
structure_threshold: 80
p_value_cap: 0.01
proximity_epsilon: 0.75
base_deadline: 6
deadline_min: 3
deadline_max: 9
invalidation_distance: "1.5"
instrument: ES
log_format: console
`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c := s.Sequencer
	if c.Gate.StructureThreshold != 80 {
		t.Errorf("structure threshold = %v", c.Gate.StructureThreshold)
	}
	if c.Gate.PValueCap != 0.01 {
		t.Errorf("p-value cap = %v", c.Gate.PValueCap)
	}
	if !c.Gate.ProximityEpsilon.Equal(decimal.RequireFromString("0.75")) {
		t.Errorf("epsilon = %s", c.Gate.ProximityEpsilon)
	}
	if c.Deadline.Base != 6 || c.Deadline.Min != 3 || c.Deadline.Max != 9 {
		t.Errorf("deadline = %+v", c.Deadline)
	}
	if c.Deadline.ExpandThreshold != 4.5 || c.Deadline.CompressThreshold != -7.0 {
		t.Errorf("thresholds not defaulted: %+v", c.Deadline)
	}
	if !c.Glitch.InvalidationDistance.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("invalidation = %s", c.Glitch.InvalidationDistance)
	}
	if s.Instrument != "ES" || s.LogFormat != "console" || s.LogLevel != "info" {
		t.Errorf("unexpected ambient settings %+v", s)
	}
}

func TestLoadRequiresEpsilon(t *testing.T) {
	path := writeFile(t, "seq.yaml", "structure_threshold: 80\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected error without proximity_epsilon")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "seq.yaml", "proximity_epsilon: 0.75\nbase_deadline: 6\n")
	t.Setenv("SEQ_BASE_DEADLINE", "8")
	t.Setenv("SEQ_PROXIMITY_EPSILON", "0.25")
	t.Setenv("SEQ_INSTRUMENT", "NQ")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Sequencer.Deadline.Base != 8 {
		t.Errorf("expected env base 8, got %d", s.Sequencer.Deadline.Base)
	}
	if !s.Sequencer.Gate.ProximityEpsilon.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("expected env epsilon, got %s", s.Sequencer.Gate.ProximityEpsilon)
	}
	if s.Instrument != "NQ" {
		t.Errorf("expected instrument NQ, got %s", s.Instrument)
	}
}

func TestEnvBadNumberFails(t *testing.T) {
	for key, val := range map[string]string{
		"SEQ_DEADLINE_MAX":         "lots",
		"SEQ_P_VALUE_CAP":          "five percent",
		"SEQ_TRI_EXPAND_THRESHOLD": "4.5.1",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv("SEQ_PROXIMITY_EPSILON", "0.5")
			t.Setenv(key, val)

			_, err := Load("")
			if err == nil {
				t.Fatalf("expected error for %s=%q", key, val)
			}
			if !strings.Contains(err.Error(), key) {
				t.Errorf("error should name %s, got %v", key, err)
			}
		})
	}
}

func TestEnvBadDecimalFails(t *testing.T) {
	t.Setenv("SEQ_PROXIMITY_EPSILON", "three quarters")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for malformed decimal")
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	path := writeFile(t, ".env", "SEQ_PROXIMITY_EPSILON=0.9\nSEQ_INSTRUMENT=CL\n")
	t.Setenv("SEQ_INSTRUMENT", "GC")
	t.Setenv("SEQ_PROXIMITY_EPSILON", "")
	os.Unsetenv("SEQ_PROXIMITY_EPSILON")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	s, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Instrument != "GC" {
		t.Errorf("dotenv overrode existing env: %s", s.Instrument)
	}
	if !s.Sequencer.Gate.ProximityEpsilon.Equal(decimal.RequireFromString("0.9")) {
		t.Errorf("expected dotenv epsilon, got %s", s.Sequencer.Gate.ProximityEpsilon)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing dotenv should be ignored, got %v", err)
	}
}

func TestFileRoundTripThroughYAMLAndJSON(t *testing.T) {
	s := Default()
	s.Sequencer.Gate.ProximityEpsilon = decimal.RequireFromString("0.75")

	out, err := yaml.Marshal(s.ToFile())
	if err != nil {
		t.Fatalf("yaml marshal: %v", err)
	}
	var f File
	if err := yaml.Unmarshal(out, &f); err != nil {
		t.Fatalf("yaml unmarshal: %v", err)
	}
	back := Default()
	if err := f.Apply(&back); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !back.Sequencer.Gate.ProximityEpsilon.Equal(s.Sequencer.Gate.ProximityEpsilon) {
		t.Fatalf("epsilon lost in round trip: %s", back.Sequencer.Gate.ProximityEpsilon)
	}

	var jf File
	if err := json.Unmarshal([]byte(`{"proximity_epsilon":"0.3","deadline_max":7}`), &jf); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	js := Default()
	if err := jf.Apply(&js); err != nil {
		t.Fatalf("Apply json: %v", err)
	}
	if js.Sequencer.Deadline.Max != 7 {
		t.Fatalf("expected max 7, got %d", js.Sequencer.Deadline.Max)
	}
}

func TestApplyRejectsBadDecimal(t *testing.T) {
	bad := "wide"
	f := File{InvalidationDistance: &bad}
	s := Default()
	if err := f.Apply(&s); err == nil {
		t.Fatal("expected error for malformed invalidation distance")
	}
}
