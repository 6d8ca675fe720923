package rules

import "github.com/nholden/rotor/model"

// InterruptKind identifies which class of block the triage selected.
type InterruptKind int

const (
	InterruptNone InterruptKind = iota
	InterruptDirect
	InterruptIncapacitate
	InterruptArea
	InterruptDisplace
)

func (k InterruptKind) String() string {
	switch k {
	case InterruptDirect:
		return "direct"
	case InterruptIncapacitate:
		return "incapacitate"
	case InterruptArea:
		return "area"
	case InterruptDisplace:
		return "displace"
	default:
		return "none"
	}
}

// InterruptChoice is the triage outcome: one ability aimed at one actor.
type InterruptChoice struct {
	Kind    InterruptKind
	Ability string
	Target  int
}

// PlanInterrupt picks the single best block among the eligible hostiles. The
// selection order reflects decreasing reliability and increasing resource
// cost:
//
//	(a) direct block on a blockable melee-range actor
//	(b) incapacitation on a non-blockable melee-range actor not already down
//	(c) area block when at least two actors are simultaneously active
//	(d) displacement on a ranged actor, preferring magical activities,
//	    falling back to any ranged actor when two or more charges remain
//
// Steps whose ability is unavailable or inside its reuse interval are
// skipped so the plan degrades instead of stalling.
func PlanInterrupt(env RuleEnv) InterruptChoice {
	eligible := env.InterruptEligible()
	if len(eligible) == 0 {
		return InterruptChoice{}
	}

	var melee, ranged []model.Hostile
	for _, h := range eligible {
		if h.Distance <= env.Cfg.MeleeRange {
			melee = append(melee, h)
		} else {
			ranged = append(ranged, h)
		}
	}

	// (a) direct block, melee.
	if ability := env.RoleAbility("direct_interrupt"); ability != "" && env.ReuseReady(ability) {
		if h, ok := longestRemaining(melee, func(h model.Hostile) bool { return h.Cast.Blockable }); ok {
			return InterruptChoice{Kind: InterruptDirect, Ability: ability, Target: h.ID}
		}
	}

	// (b) incapacitate a non-blockable melee attempt.
	if ability := env.RoleAbility("incapacitate"); ability != "" && env.ReuseReady(ability) {
		if h, ok := longestRemaining(melee, func(h model.Hostile) bool {
			return !h.Cast.Blockable && !h.Incapacitated
		}); ok {
			return InterruptChoice{Kind: InterruptIncapacitate, Ability: ability, Target: h.ID}
		}
	}

	// (c) area block when the attempts overlap.
	if ability := env.RoleAbility("area_interrupt"); ability != "" && env.ReuseReady(ability) &&
		len(eligible) >= 2 && windowAvailable(env, ability) {
		return InterruptChoice{Kind: InterruptArea, Ability: ability, Target: TargetSelf}
	}

	// (d) displacement on a ranged actor.
	if ability := env.RoleAbility("displacement"); ability != "" && env.ReuseReady(ability) {
		if h, ok := longestRemaining(ranged, func(h model.Hostile) bool { return h.Cast.Magical }); ok {
			return InterruptChoice{Kind: InterruptDisplace, Ability: ability, Target: h.ID}
		}
		if env.AbilityCharges(ability) >= 2 {
			if h, ok := longestRemaining(ranged, func(h model.Hostile) bool { return true }); ok {
				return InterruptChoice{Kind: InterruptDisplace, Ability: ability, Target: h.ID}
			}
		}
	}

	return InterruptChoice{}
}

// longestRemaining picks the matching hostile with the most activity time
// left, the attempt worth the most to stop.
func longestRemaining(hs []model.Hostile, match func(model.Hostile) bool) (model.Hostile, bool) {
	var best model.Hostile
	found := false
	for _, h := range hs {
		if !match(h) {
			continue
		}
		if !found || h.Cast.Remaining > best.Cast.Remaining {
			best = h
			found = true
		}
	}
	return best, found
}
