// Package deadline computes the elastic tick budget granted to an armed
// sequence.
package deadline

// #region config
// Config holds the baseline budget, clamp bounds and regime thresholds.
type Config struct {
	Base              int     // baseline ticks before regime adjustment
	Min               int     // lower clamp
	Max               int     // upper clamp
	ExpandThreshold   float64 // tri* at or above this adds one tick
	CompressThreshold float64 // tau* at or below this removes one tick
}

// DefaultConfig returns the standard budget of 4 ticks within [2, 12].
func DefaultConfig() Config {
	return Config{
		Base:              4,
		Min:               2,
		Max:               12,
		ExpandThreshold:   4.5,
		CompressThreshold: -7.0,
	}
}

// Compute applies Elastic with this configuration.
func (c Config) Compute(triStar, tauStar float64) int {
	return Elastic(c.Base, triStar, tauStar, c.Min, c.Max, c.ExpandThreshold, c.CompressThreshold)
}

// #endregion config

// #region elastic
// Elastic expands base by one tick when triStar >= expand, compresses it by
// one when tauStar <= compress, then clamps into [min, max]. NaN inputs fail
// both comparisons and leave base unadjusted.
func Elastic(base int, triStar, tauStar float64, min, max int, expand, compress float64) int {
	adjusted := base
	if triStar >= expand {
		adjusted++
	}
	if tauStar <= compress {
		adjusted--
	}
	if adjusted > max {
		adjusted = max
	}
	if adjusted < min {
		adjusted = min
	}
	return adjusted
}

// #endregion elastic
