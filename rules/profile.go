package rules

import "math"

// Mode tags the capability-selected rule-set variant governing the combat
// category. Utility, defensive, and interrupt rules are shared by all modes.
type Mode string

const (
	// ModeUndetermined means no probe has matched yet; the router keeps
	// re-probing while returning the untrained profile.
	ModeUndetermined Mode = ""
	// ModeOnslaught is detected capability A: single-target burst kit.
	ModeOnslaught Mode = "onslaught"
	// ModeReaping is detected capability B: area harvest kit.
	ModeReaping Mode = "reaping"
	// ModeUntrained is the explicit no-capability outcome: the agent is
	// assumed under-leveled or mid-progression and runs no combat rules.
	ModeUntrained Mode = "untrained"
)

// Profile carries the per-mode weights the compiler maps to concrete rule
// parameters. Weights are 0.0–1.0.
type Profile struct {
	Mode          Mode    `json:"mode"`
	Aggression    float64 `json:"aggression"`     // spend thresholds, burst eagerness
	DefenseBias   float64 `json:"defense_bias"`   // mitigation trigger looseness
	AreaGroupSize int     `json:"area_group_size"` // hostiles needed for area strikes
}

// ProfileFor returns the baseline profile for a mode.
func ProfileFor(mode Mode) Profile {
	switch mode {
	case ModeOnslaught:
		return Profile{Mode: mode, Aggression: 0.7, DefenseBias: 0.4, AreaGroupSize: 3}
	case ModeReaping:
		return Profile{Mode: mode, Aggression: 0.5, DefenseBias: 0.5, AreaGroupSize: 2}
	default:
		return Profile{Mode: ModeUntrained, Aggression: 0.3, DefenseBias: 0.7, AreaGroupSize: 3}
	}
}

// Validate clamps all weights to their valid ranges.
func (p *Profile) Validate() {
	p.Aggression = clamp(p.Aggression, 0, 1)
	p.DefenseBias = clamp(p.DefenseBias, 0, 1)
	p.AreaGroupSize = clampInt(p.AreaGroupSize, 2, 6)
}

// lerp linearly interpolates between min and max by t (0–1), returning an int.
func lerp(min, max int, t float64) int {
	return min + int(math.Round(float64(max-min)*t))
}

// lerpf linearly interpolates between min and max by t (0–1).
func lerpf(min, max, t float64) float64 {
	return min + (max-min)*t
}

// clamp restricts v to [min, max].
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
