package agent

import (
	"log/slog"

	"github.com/nholden/rotor/model"
	"github.com/nholden/rotor/rules"
)

// capabilityProbe matches a detected capability from the snapshot. Probes run
// in a fixed order; the first match wins.
type capabilityProbe struct {
	mode      rules.Mode
	signature string // ability whose presence marks the capability
}

var probes = []capabilityProbe{
	{mode: rules.ModeOnslaught, signature: rules.AbilityFrenzy},
	{mode: rules.ModeReaping, signature: rules.AbilityScourge},
}

// Router selects the mode profile governing the current tick. An explicit
// override always wins. A concrete detection is cached and sticky; a probe
// miss returns the untrained profile for the tick but leaves the cache
// undetermined, so an under-leveled agent is re-probed every tick and picks
// up a capability the moment it appears. Caching avoids oscillation from
// transient detection failures.
type Router struct {
	override rules.Mode
	cached   rules.Mode
}

func NewRouter(override rules.Mode) *Router {
	return &Router{override: override}
}

// Select is deterministic: identical override and capability inputs always
// yield the same mode.
func (r *Router) Select(snap model.Snapshot) rules.Mode {
	if r.override != rules.ModeUndetermined {
		return r.override
	}
	if r.cached != rules.ModeUndetermined {
		return r.cached
	}
	if !snap.Agent.Valid {
		return rules.ModeUntrained
	}
	for _, p := range probes {
		if snap.Abilities[p.signature].Learned {
			r.cached = p.mode
			slog.Info("capability detected", "mode", string(p.mode), "signature", p.signature)
			return p.mode
		}
	}
	return rules.ModeUntrained
}

// Reset clears the cached detection so the next Select re-probes. Called when
// a capability signature is learned or lost.
func (r *Router) Reset() { r.cached = rules.ModeUndetermined }
