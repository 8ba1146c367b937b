package gate

import (
	"fmt"

	"github.com/danielpatrickdp/corps-sequencer/internal/market"
)

// #region gate
// Gate decides whether an idle sequencer may arm on a snapshot.
type Gate struct {
	config GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config}
}

// Config returns the thresholds the gate was built with.
func (g *Gate) Config() GateConfig {
	return g.config
}

// MayArm reports whether every integrity condition holds.
func (g *Gate) MayArm(snap market.Snapshot) bool {
	return g.Evaluate(snap).Allowed
}

// Evaluate checks every condition and collects all vetoes. Any single veto
// blocks arming; comparisons are written so NaN inputs veto.
func (g *Gate) Evaluate(snap market.Snapshot) GateDecision {
	var vetoes []VetoSignal

	// 1. Regime must be open
	if !snap.RegimeOpen {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoRegimeClosed,
			Reason: "regime closed",
		})
	}

	// 2. Structural conviction
	if !(snap.StructureScore >= g.config.StructureThreshold) {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoWeakStructure,
			Reason: fmt.Sprintf("structure %.2f below %.2f", snap.StructureScore, g.config.StructureThreshold),
		})
	}

	// 3. Bootstrap CI must exclude zero
	if !snap.CIExcludesZero {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoCIIncludesZero,
			Reason: "confidence interval includes zero",
		})
	}

	// 4. Permutation test significance
	if !(snap.PermutationPValue <= g.config.PValueCap) {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoPValueAboveCap,
			Reason: fmt.Sprintf("p-value %.4f above cap %.4f", snap.PermutationPValue, g.config.PValueCap),
		})
	}

	// 5. Price near the planned trigger
	dist := snap.Distance()
	if dist.GreaterThan(g.config.ProximityEpsilon) {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoPriceOutOfRange,
			Reason: fmt.Sprintf("price %s is %s from reference %s (epsilon %s)", snap.Price, dist, snap.ReferenceLevel, g.config.ProximityEpsilon),
		})
	}

	if len(vetoes) > 0 {
		return GateDecision{
			Allowed:     false,
			Reason:      fmt.Sprintf("hard veto: %s", vetoes[0].Reason),
			VetoSignals: vetoes,
		}
	}

	return GateDecision{
		Allowed: true,
		Reason:  fmt.Sprintf("gate open: structure=%.2f p=%.4f distance=%s", snap.StructureScore, snap.PermutationPValue, dist),
	}
}

// #endregion gate
