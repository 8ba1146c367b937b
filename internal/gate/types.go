package gate

import "github.com/shopspring/decimal"

// #region veto-type
// VetoType enumerates the arming conditions that can block a sequence.
type VetoType string

const (
	VetoRegimeClosed    VetoType = "regime_closed"
	VetoWeakStructure   VetoType = "weak_structure"
	VetoCIIncludesZero  VetoType = "ci_includes_zero"
	VetoPValueAboveCap  VetoType = "p_value_above_cap"
	VetoPriceOutOfRange VetoType = "price_out_of_range"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents one failed arming condition.
type VetoSignal struct {
	Type   VetoType
	Reason string
}

// #endregion veto-signal

// #region gate-config
// GateConfig holds the integrity thresholds.
type GateConfig struct {
	StructureThreshold float64         // minimum structure score (0-100)
	PValueCap          float64         // maximum permutation p-value
	ProximityEpsilon   decimal.Decimal // max |price - reference level|; instrument dependent
}

// DefaultGateConfig returns the strict-mode thresholds. ProximityEpsilon is
// left at zero: it has no safe global default and must be supplied.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		StructureThreshold: 85.0,
		PValueCap:          0.05,
	}
}

// #endregion gate-config

// #region gate-decision
// GateDecision is the output of an arming check.
type GateDecision struct {
	Allowed     bool
	Reason      string
	VetoSignals []VetoSignal // every failed condition, in evaluation order
}

// #endregion gate-decision
