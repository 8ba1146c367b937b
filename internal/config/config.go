// Package config loads sequencer settings from defaults, an optional YAML
// file and SEQ_-prefixed environment variables, in that order.
package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/corps-sequencer/internal/sequencer"
)

// #region settings
// Settings is the fully resolved runtime configuration.
type Settings struct {
	Sequencer   sequencer.Config
	Instrument  string
	LogLevel    string
	LogFormat   string // "json" | "console"
	DBPath      string
	MetricsAddr string
}

// Default returns settings with every component default applied.
func Default() Settings {
	return Settings{
		Sequencer:  sequencer.DefaultConfig(),
		Instrument: "default",
		LogLevel:   "info",
		LogFormat:  "json",
	}
}

// #endregion settings

// #region file
// File is the on-disk shape of the configuration. Nil fields keep the value
// they are applied over. Decimal settings are strings so YAML and JSON
// numbers keep their exact digits.
type File struct {
	StructureThreshold   *float64 `yaml:"structure_threshold,omitempty" json:"structure_threshold,omitempty"`
	PValueCap            *float64 `yaml:"p_value_cap,omitempty" json:"p_value_cap,omitempty"`
	ProximityEpsilon     *string  `yaml:"proximity_epsilon,omitempty" json:"proximity_epsilon,omitempty"`
	BaseDeadline         *int     `yaml:"base_deadline,omitempty" json:"base_deadline,omitempty"`
	DeadlineMin          *int     `yaml:"deadline_min,omitempty" json:"deadline_min,omitempty"`
	DeadlineMax          *int     `yaml:"deadline_max,omitempty" json:"deadline_max,omitempty"`
	TriExpandThreshold   *float64 `yaml:"tri_expand_threshold,omitempty" json:"tri_expand_threshold,omitempty"`
	TauCompressThreshold *float64 `yaml:"tau_compress_threshold,omitempty" json:"tau_compress_threshold,omitempty"`
	AdverseTauThreshold  *float64 `yaml:"adverse_tau_threshold,omitempty" json:"adverse_tau_threshold,omitempty"`
	InvalidationDistance *string  `yaml:"invalidation_distance,omitempty" json:"invalidation_distance,omitempty"`

	Instrument  *string `yaml:"instrument,omitempty" json:"instrument,omitempty"`
	LogLevel    *string `yaml:"log_level,omitempty" json:"log_level,omitempty"`
	LogFormat   *string `yaml:"log_format,omitempty" json:"log_format,omitempty"`
	DBPath      *string `yaml:"db_path,omitempty" json:"db_path,omitempty"`
	MetricsAddr *string `yaml:"metrics_addr,omitempty" json:"metrics_addr,omitempty"`
}

// Apply overlays f onto s.
func (f File) Apply(s *Settings) error {
	c := &s.Sequencer
	if f.StructureThreshold != nil {
		c.Gate.StructureThreshold = *f.StructureThreshold
	}
	if f.PValueCap != nil {
		c.Gate.PValueCap = *f.PValueCap
	}
	if f.ProximityEpsilon != nil {
		d, err := decimal.NewFromString(*f.ProximityEpsilon)
		if err != nil {
			return fmt.Errorf("proximity_epsilon: %w", err)
		}
		c.Gate.ProximityEpsilon = d
	}
	if f.BaseDeadline != nil {
		c.Deadline.Base = *f.BaseDeadline
	}
	if f.DeadlineMin != nil {
		c.Deadline.Min = *f.DeadlineMin
	}
	if f.DeadlineMax != nil {
		c.Deadline.Max = *f.DeadlineMax
	}
	if f.TriExpandThreshold != nil {
		c.Deadline.ExpandThreshold = *f.TriExpandThreshold
	}
	if f.TauCompressThreshold != nil {
		c.Deadline.CompressThreshold = *f.TauCompressThreshold
	}
	if f.AdverseTauThreshold != nil {
		c.Glitch.AdverseTau = *f.AdverseTauThreshold
	}
	if f.InvalidationDistance != nil {
		d, err := decimal.NewFromString(*f.InvalidationDistance)
		if err != nil {
			return fmt.Errorf("invalidation_distance: %w", err)
		}
		c.Glitch.InvalidationDistance = d
	}
	if f.Instrument != nil {
		s.Instrument = *f.Instrument
	}
	if f.LogLevel != nil {
		s.LogLevel = *f.LogLevel
	}
	if f.LogFormat != nil {
		s.LogFormat = *f.LogFormat
	}
	if f.DBPath != nil {
		s.DBPath = *f.DBPath
	}
	if f.MetricsAddr != nil {
		s.MetricsAddr = *f.MetricsAddr
	}
	return nil
}

// ToFile renders s back into its file shape with every field set.
func (s Settings) ToFile() File {
	c := s.Sequencer
	eps := c.Gate.ProximityEpsilon.String()
	inv := c.Glitch.InvalidationDistance.String()
	return File{
		StructureThreshold:   &c.Gate.StructureThreshold,
		PValueCap:            &c.Gate.PValueCap,
		ProximityEpsilon:     &eps,
		BaseDeadline:         &c.Deadline.Base,
		DeadlineMin:          &c.Deadline.Min,
		DeadlineMax:          &c.Deadline.Max,
		TriExpandThreshold:   &c.Deadline.ExpandThreshold,
		TauCompressThreshold: &c.Deadline.CompressThreshold,
		AdverseTauThreshold:  &c.Glitch.AdverseTau,
		InvalidationDistance: &inv,
		Instrument:           &s.Instrument,
		LogLevel:             &s.LogLevel,
		LogFormat:            &s.LogFormat,
		DBPath:               &s.DBPath,
		MetricsAddr:          &s.MetricsAddr,
	}
}

// #endregion file

// #region load
// Load resolves settings: defaults, then the YAML file at path (if path is
// non-empty), then environment overrides. The result is validated.
func Load(path string) (Settings, error) {
	s := Default()
	if path != "" {
		f, err := ReadFile(path)
		if err != nil {
			return Settings{}, err
		}
		if err := f.Apply(&s); err != nil {
			return Settings{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := ApplyEnv(&s); err != nil {
		return Settings{}, err
	}
	if err := s.Sequencer.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// ReadFile parses a YAML config file.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return f, nil
}

// ApplyEnv overlays SEQ_-prefixed environment variables onto s.
func ApplyEnv(s *Settings) error {
	c := &s.Sequencer
	floats := []struct {
		key string
		dst *float64
	}{
		{"STRUCTURE_THRESHOLD", &c.Gate.StructureThreshold},
		{"P_VALUE_CAP", &c.Gate.PValueCap},
		{"TRI_EXPAND_THRESHOLD", &c.Deadline.ExpandThreshold},
		{"TAU_COMPRESS_THRESHOLD", &c.Deadline.CompressThreshold},
		{"ADVERSE_TAU_THRESHOLD", &c.Glitch.AdverseTau},
	}
	for _, f := range floats {
		v, err := getEnvFloat(f.key, *f.dst)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"BASE_DEADLINE", &c.Deadline.Base},
		{"DEADLINE_MIN", &c.Deadline.Min},
		{"DEADLINE_MAX", &c.Deadline.Max},
	}
	for _, i := range ints {
		v, err := getEnvInt(i.key, *i.dst)
		if err != nil {
			return err
		}
		*i.dst = v
	}

	var err error
	if c.Gate.ProximityEpsilon, err = getEnvDecimal("PROXIMITY_EPSILON", c.Gate.ProximityEpsilon); err != nil {
		return err
	}
	if c.Glitch.InvalidationDistance, err = getEnvDecimal("INVALIDATION_DISTANCE", c.Glitch.InvalidationDistance); err != nil {
		return err
	}

	s.Instrument = getEnv("INSTRUMENT", s.Instrument)
	s.LogLevel = getEnv("LOG_LEVEL", s.LogLevel)
	s.LogFormat = getEnv("LOG_FORMAT", s.LogFormat)
	s.DBPath = getEnv("DB_PATH", s.DBPath)
	s.MetricsAddr = getEnv("METRICS_ADDR", s.MetricsAddr)
	return nil
}

// #endregion load
