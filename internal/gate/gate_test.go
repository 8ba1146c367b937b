package gate

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/danielpatrickdp/corps-sequencer/internal/market"
)

func testConfig() GateConfig {
	cfg := DefaultGateConfig()
	cfg.ProximityEpsilon = decimal.RequireFromString("0.75")
	return cfg
}

// makeSnapshot returns a snapshot that passes every condition.
func makeSnapshot() market.Snapshot {
	return market.Snapshot{
		Price:             decimal.RequireFromString("100.50"),
		ReferenceLevel:    decimal.RequireFromString("100.00"),
		StructureScore:    90,
		CIExcludesZero:    true,
		PermutationPValue: 0.01,
		RegimeOpen:        true,
		TicksRemaining:    10,
		TriStar:           4.9,
		TauStar:           -2.0,
	}
}

func TestGateAllowsOnCleanSnapshot(t *testing.T) {
	g := NewGate(testConfig())

	decision := g.Evaluate(makeSnapshot())

	if !decision.Allowed {
		t.Fatalf("expected allowed, got %s", decision.Reason)
	}
	if len(decision.VetoSignals) != 0 {
		t.Fatalf("expected no vetoes, got %v", decision.VetoSignals)
	}
	if !g.MayArm(makeSnapshot()) {
		t.Fatal("MayArm should agree with Evaluate")
	}
}

func TestGateRejectOnClosedRegime(t *testing.T) {
	g := NewGate(testConfig())
	snap := makeSnapshot()
	snap.RegimeOpen = false

	decision := g.Evaluate(snap)

	if decision.Allowed {
		t.Fatal("expected veto")
	}
	if decision.VetoSignals[0].Type != VetoRegimeClosed {
		t.Fatalf("expected VetoRegimeClosed, got %s", decision.VetoSignals[0].Type)
	}
}

func TestGateRejectOnWeakStructure(t *testing.T) {
	g := NewGate(testConfig())
	snap := makeSnapshot()
	snap.StructureScore = 84.99

	decision := g.Evaluate(snap)

	if decision.Allowed {
		t.Fatal("expected veto")
	}
	if decision.VetoSignals[0].Type != VetoWeakStructure {
		t.Fatalf("expected VetoWeakStructure, got %s", decision.VetoSignals[0].Type)
	}
}

func TestGateStructureThresholdInclusive(t *testing.T) {
	g := NewGate(testConfig())
	snap := makeSnapshot()
	snap.StructureScore = 85.0

	if !g.MayArm(snap) {
		t.Fatal("score equal to threshold should pass")
	}
}

func TestGateRejectOnCIIncludingZero(t *testing.T) {
	g := NewGate(testConfig())
	snap := makeSnapshot()
	snap.CIExcludesZero = false

	decision := g.Evaluate(snap)

	if decision.Allowed {
		t.Fatal("expected veto")
	}
	if decision.VetoSignals[0].Type != VetoCIIncludesZero {
		t.Fatalf("expected VetoCIIncludesZero, got %s", decision.VetoSignals[0].Type)
	}
}

func TestGateRejectOnPValueAboveCap(t *testing.T) {
	g := NewGate(testConfig())
	snap := makeSnapshot()
	snap.PermutationPValue = 0.051

	decision := g.Evaluate(snap)

	if decision.Allowed {
		t.Fatal("expected veto")
	}
	if decision.VetoSignals[0].Type != VetoPValueAboveCap {
		t.Fatalf("expected VetoPValueAboveCap, got %s", decision.VetoSignals[0].Type)
	}
}

func TestGateRejectOnPriceTooFar(t *testing.T) {
	g := NewGate(testConfig())
	snap := makeSnapshot()
	snap.Price = decimal.RequireFromString("99.24")

	decision := g.Evaluate(snap)

	if decision.Allowed {
		t.Fatal("expected veto")
	}
	if decision.VetoSignals[0].Type != VetoPriceOutOfRange {
		t.Fatalf("expected VetoPriceOutOfRange, got %s", decision.VetoSignals[0].Type)
	}
}

func TestGateProximityInclusive(t *testing.T) {
	g := NewGate(testConfig())
	snap := makeSnapshot()
	snap.Price = decimal.RequireFromString("99.25")

	if !g.MayArm(snap) {
		t.Fatal("distance equal to epsilon should pass")
	}
}

func TestGateZeroEpsilonFailsClosed(t *testing.T) {
	g := NewGate(DefaultGateConfig())

	if g.MayArm(makeSnapshot()) {
		t.Fatal("unset proximity epsilon must block any price away from the reference")
	}
}

func TestGateNaNInputsVeto(t *testing.T) {
	g := NewGate(testConfig())
	snap := makeSnapshot()
	snap.StructureScore = math.NaN()
	snap.PermutationPValue = math.NaN()

	decision := g.Evaluate(snap)

	if decision.Allowed {
		t.Fatal("NaN signals must not arm")
	}
	if len(decision.VetoSignals) != 2 {
		t.Fatalf("expected 2 vetoes, got %d", len(decision.VetoSignals))
	}
}

func TestGateMultipleVetoes(t *testing.T) {
	g := NewGate(testConfig())
	snap := makeSnapshot()
	snap.RegimeOpen = false
	snap.CIExcludesZero = false
	snap.Price = decimal.NewFromInt(120)

	decision := g.Evaluate(snap)

	if decision.Allowed {
		t.Fatal("expected veto")
	}
	if len(decision.VetoSignals) != 3 {
		t.Fatalf("expected 3 veto signals, got %d", len(decision.VetoSignals))
	}
	if decision.Reason != "hard veto: regime closed" {
		t.Fatalf("unexpected reason %q", decision.Reason)
	}
}
