package sequencer

import (
	"fmt"

	"github.com/danielpatrickdp/corps-sequencer/internal/deadline"
	"github.com/danielpatrickdp/corps-sequencer/internal/gate"
	"github.com/danielpatrickdp/corps-sequencer/internal/glitch"
	"github.com/danielpatrickdp/corps-sequencer/internal/narrator"
)

// #region config
// Config bundles the gate, deadline and interpreter configs for one
// sequencer instance.
type Config struct {
	Gate     gate.GateConfig
	Deadline deadline.Config
	Glitch   glitch.Config
}

// DefaultConfig returns defaults for all three components. The gate's
// ProximityEpsilon still has to be set before New accepts the config.
func DefaultConfig() Config {
	return Config{
		Gate:     gate.DefaultGateConfig(),
		Deadline: deadline.DefaultConfig(),
		Glitch:   glitch.DefaultConfig(),
	}
}

// Validate rejects configurations the sequencer cannot run safely.
func (c Config) Validate() error {
	if !c.Gate.ProximityEpsilon.IsPositive() {
		return fmt.Errorf("proximity_epsilon must be positive, got %s", c.Gate.ProximityEpsilon)
	}
	if c.Gate.PValueCap <= 0 || c.Gate.PValueCap > 1 {
		return fmt.Errorf("p_value_cap %.4f outside (0, 1]", c.Gate.PValueCap)
	}
	if c.Gate.StructureThreshold < 0 || c.Gate.StructureThreshold > 100 {
		return fmt.Errorf("structure_threshold %.2f outside [0, 100]", c.Gate.StructureThreshold)
	}
	if c.Deadline.Min < 1 {
		return fmt.Errorf("deadline_min must be at least 1, got %d", c.Deadline.Min)
	}
	if c.Deadline.Min > c.Deadline.Max {
		return fmt.Errorf("deadline_min %d exceeds deadline_max %d", c.Deadline.Min, c.Deadline.Max)
	}
	if c.Glitch.InvalidationDistance.IsNegative() {
		return fmt.Errorf("invalidation_distance must not be negative, got %s", c.Glitch.InvalidationDistance)
	}
	return nil
}

// #endregion config

// #region observer
// Observer receives every emitted event and every arming check, synchronously
// and in order. Observers must not call back into the sequencer.
type Observer interface {
	OnEvent(e narrator.Event)
	OnGate(tick int64, d gate.GateDecision)
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithObserver registers o.
func WithObserver(o Observer) Option {
	return func(s *Sequencer) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// #endregion observer
