// Package guard decides when discrete-resource spending must be withheld to
// guarantee a critical buffer refresh. All inputs come from one tick
// snapshot; the guard never mutates buffer state.
package guard

import (
	"time"

	"github.com/nholden/rotor/forecast"
	"github.com/nholden/rotor/model"
)

// Policy holds the buffer thresholds, pulled from config once per rule-set
// compile.
type Policy struct {
	MinStacks        int
	RefreshThreshold time.Duration
	RefreshCost      int
	Window           time.Duration
	Tick             time.Duration
}

// Decision is the four-branch outcome of Assess.
type Decision int

const (
	// DecisionNone: buffer healthy, spending unblocked.
	DecisionNone Decision = iota
	// DecisionRefresh: refresh is affordable now, cast it.
	DecisionRefresh
	// DecisionSurvival: refresh arrives soon but health is critical, so attempt
	// the survival action first.
	DecisionSurvival
	// DecisionDefer: refresh arrives soon. No action, but do not block a
	// sibling decision that lets the resource regenerate.
	DecisionDefer
	// DecisionBlock: refresh unaffordable now and not soon, so block all
	// discretionary discrete-resource spending until state changes.
	DecisionBlock
)

func (d Decision) String() string {
	switch d {
	case DecisionNone:
		return "none"
	case DecisionRefresh:
		return "refresh"
	case DecisionSurvival:
		return "survival"
	case DecisionDefer:
		return "defer"
	case DecisionBlock:
		return "block"
	default:
		return "unknown"
	}
}

// NeedsRefresh reports whether the buffer is low on stacks or about to lapse.
// An absent buffer counts as zero stacks and always needs establishing.
func NeedsRefresh(b model.BufferState, minStacks int, refreshThreshold time.Duration) bool {
	return b.Stacks < minStacks || b.Remaining <= refreshThreshold
}

// ShouldBlockSpending reports whether discretionary slot spending must stop:
// the buffer needs a refresh and the slots for it arrive within the window.
// Blindly blocking whenever the buffer is low would starve the pipeline
// during the exact window when regeneration is about to land; never blocking
// risks a lapse of the agent's primary mitigation.
func ShouldBlockSpending(b model.BufferState, fc forecast.Result, p Policy) bool {
	return NeedsRefresh(b, p.MinStacks, p.RefreshThreshold) &&
		fc.ShouldReserve(p.RefreshCost, p.Window)
}

// Assess runs the four-branch emergency policy.
func Assess(b model.BufferState, fc forecast.Result, healthCritical bool, p Policy) Decision {
	if !NeedsRefresh(b, p.MinStacks, p.RefreshThreshold) {
		return DecisionNone
	}
	if fc.Current >= p.RefreshCost {
		return DecisionRefresh
	}
	if fc.CanAffordSoon(p.RefreshCost, p.Window, p.Tick) {
		if healthCritical {
			return DecisionSurvival
		}
		return DecisionDefer
	}
	return DecisionBlock
}
