// Package config loads the tunable thresholds and toggles that parameterize
// rule compilation. Only numbers and switches live here, no behavior.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the typed configuration snapshot. Durations are expressed in
// seconds in the YAML file and converted on access.
type Settings struct {
	TickSeconds float64 `yaml:"tick_seconds"`

	ForecastWindowSeconds float64 `yaml:"forecast_window_seconds"`

	BufferMinStacks             int     `yaml:"buffer_min_stacks"`
	BufferRefreshThresholdSecs  float64 `yaml:"buffer_refresh_threshold_seconds"`
	BufferRefreshCost           int     `yaml:"buffer_refresh_cost"`
	BufferMaxStacks             int     `yaml:"buffer_max_stacks"`

	PowerCapThreshold float64 `yaml:"power_cap_threshold"`
	PowerSpendCost    float64 `yaml:"power_spend_cost"`

	InterruptMinElapsedSecs   float64 `yaml:"interrupt_min_elapsed_seconds"`
	InterruptMinRemainingSecs float64 `yaml:"interrupt_min_remaining_seconds"`
	InterruptMaxRemainingSecs float64 `yaml:"interrupt_max_remaining_seconds"`
	InterruptsEnabled         bool    `yaml:"interrupts_enabled"`

	MeleeRange    float64 `yaml:"melee_range"`
	HostileRadius float64 `yaml:"hostile_radius"`

	HealthCriticalPct          float64 `yaml:"health_critical_pct"`
	MitigationHealthPct        float64 `yaml:"mitigation_health_pct"`
	MitigationPredictedPct     float64 `yaml:"mitigation_predicted_pct"`
	PredictedHealthHorizonSecs float64 `yaml:"predicted_health_horizon_seconds"`
	StrongMitigationCap        int     `yaml:"strong_mitigation_cap"`
	DefensivesEnabled          bool    `yaml:"defensives_enabled"`

	MinReuseIntervalSecs   float64 `yaml:"min_reuse_interval_seconds"`
	MinTargetLifetimeSecs  float64 `yaml:"min_target_lifetime_seconds"`

	ModeOverride string `yaml:"mode_override"`

	raw map[string]any
}

// Default returns the baseline settings used when no file is supplied.
func Default() Settings {
	return Settings{
		TickSeconds:                0.15,
		ForecastWindowSeconds:      3.0,
		BufferMinStacks:            5,
		BufferRefreshThresholdSecs: 4.5,
		BufferRefreshCost:          2,
		BufferMaxStacks:            10,
		PowerCapThreshold:          85,
		PowerSpendCost:             40,
		InterruptMinElapsedSecs:    0.2,
		InterruptMinRemainingSecs:  0.5,
		InterruptMaxRemainingSecs:  3.0,
		InterruptsEnabled:          true,
		MeleeRange:                 5.0,
		HostileRadius:              30.0,
		HealthCriticalPct:          0.35,
		MitigationHealthPct:        0.60,
		MitigationPredictedPct:     0.50,
		PredictedHealthHorizonSecs: 3.0,
		StrongMitigationCap:        2,
		DefensivesEnabled:          true,
		MinReuseIntervalSecs:       0.8,
		MinTargetLifetimeSecs:      10.0,
		ModeOverride:               "",
	}
}

// Load reads the YAML file at path over the defaults. A missing path returns
// the defaults unchanged; a malformed file is an error.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		s.Validate()
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.Validate()
			return s, nil
		}
		return s, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("config: decode %s: %w", path, err)
	}
	raw := make(map[string]any)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return s, fmt.Errorf("config: decode %s: %w", path, err)
	}
	s.raw = raw
	s.Validate()
	return s, nil
}

// Validate clamps every field to its legal range.
func (s *Settings) Validate() {
	s.TickSeconds = clamp(s.TickSeconds, 0.01, 1.0)
	s.ForecastWindowSeconds = clamp(s.ForecastWindowSeconds, 0.5, 10)
	s.BufferMinStacks = clampInt(s.BufferMinStacks, 1, 20)
	s.BufferRefreshThresholdSecs = clamp(s.BufferRefreshThresholdSecs, 0.5, 30)
	s.BufferRefreshCost = clampInt(s.BufferRefreshCost, 1, 6)
	s.BufferMaxStacks = clampInt(s.BufferMaxStacks, s.BufferMinStacks, 20)
	s.PowerCapThreshold = clamp(s.PowerCapThreshold, 10, 200)
	s.PowerSpendCost = clamp(s.PowerSpendCost, 1, 100)
	s.InterruptMinElapsedSecs = clamp(s.InterruptMinElapsedSecs, 0, 2)
	s.InterruptMinRemainingSecs = clamp(s.InterruptMinRemainingSecs, 0, 2)
	s.InterruptMaxRemainingSecs = clamp(s.InterruptMaxRemainingSecs, s.InterruptMinRemainingSecs, 10)
	s.MeleeRange = clamp(s.MeleeRange, 1, 10)
	s.HostileRadius = clamp(s.HostileRadius, s.MeleeRange, 100)
	s.HealthCriticalPct = clamp(s.HealthCriticalPct, 0.05, 0.9)
	s.MitigationHealthPct = clamp(s.MitigationHealthPct, 0.1, 1)
	s.MitigationPredictedPct = clamp(s.MitigationPredictedPct, 0.05, 1)
	s.PredictedHealthHorizonSecs = clamp(s.PredictedHealthHorizonSecs, 0.5, 10)
	s.StrongMitigationCap = clampInt(s.StrongMitigationCap, 1, 5)
	s.MinReuseIntervalSecs = clamp(s.MinReuseIntervalSecs, 0.1, 5)
	s.MinTargetLifetimeSecs = clamp(s.MinTargetLifetimeSecs, 0, 120)

	// An override the router doesn't know would silently pin the untrained
	// profile; drop it so the capability probes stay in charge.
	switch s.ModeOverride {
	case "", "onslaught", "reaping", "untrained":
	default:
		slog.Warn("ignoring unknown mode override", "value", s.ModeOverride)
		s.ModeOverride = ""
	}
}

// Duration accessors.

func (s Settings) TickDuration() time.Duration        { return secs(s.TickSeconds) }
func (s Settings) ForecastWindow() time.Duration      { return secs(s.ForecastWindowSeconds) }
func (s Settings) BufferRefreshThreshold() time.Duration {
	return secs(s.BufferRefreshThresholdSecs)
}
func (s Settings) InterruptMinElapsed() time.Duration   { return secs(s.InterruptMinElapsedSecs) }
func (s Settings) InterruptMinRemaining() time.Duration { return secs(s.InterruptMinRemainingSecs) }
func (s Settings) InterruptMaxRemaining() time.Duration { return secs(s.InterruptMaxRemainingSecs) }
func (s Settings) PredictedHealthHorizon() time.Duration {
	return secs(s.PredictedHealthHorizonSecs)
}
func (s Settings) MinReuseInterval() time.Duration  { return secs(s.MinReuseIntervalSecs) }
func (s Settings) MinTargetLifetime() time.Duration { return secs(s.MinTargetLifetimeSecs) }

// Generic key accessors over the raw document, for host surfaces that ask by
// key instead of binding the typed view. Unknown keys return the zero value.

func (s Settings) Bool(key string) bool {
	if v, ok := s.raw[key].(bool); ok {
		return v
	}
	return false
}

func (s Settings) Int(key string) int {
	switch v := s.raw[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func (s Settings) Float(key string) float64 {
	switch v := s.raw[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func secs(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
