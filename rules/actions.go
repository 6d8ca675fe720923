package rules

import (
	"log/slog"

	"github.com/nholden/rotor/host"
)

// TargetSelf is the sentinel target ID for self-casts and area effects.
const TargetSelf = 0

// castTracked dispatches through the host primitive with the anti-double-fire
// discipline: a sensitive action inside its minimum inter-use interval is
// skipped, and a successful dispatch records the snapshot clock as last use.
// This last-use record is the only cross-tick state the core owns.
func castTracked(env RuleEnv, sink host.ActionSink, ability string, target int) bool {
	if ability == "" {
		return false
	}
	if !env.ReuseReady(ability) {
		return false
	}
	if !sink.Cast(ability, target) {
		return false
	}
	lastUseMap(env.Memory)[ability] = env.Snap.Now
	return true
}

func targetOrSelf(env RuleEnv) int {
	if env.Snap.Target.Present {
		return env.Snap.Target.ID
	}
	return TargetSelf
}

// --- utility ---

func ActionRefreshBuffer(env RuleEnv, sink host.ActionSink) bool {
	return castTracked(env, sink, env.RoleAbility("buffer_refresh"), targetOrSelf(env))
}

// ActionSurvivalHeal fires when the guard wants the refresh but health can't
// wait for the slots to land.
func ActionSurvivalHeal(env RuleEnv, sink host.ActionSink) bool {
	return castTracked(env, sink, env.RoleAbility("emergency_heal"), TargetSelf)
}

// --- defensive ---

func ActionEmergencyHeal(env RuleEnv, sink host.ActionSink) bool {
	return castTracked(env, sink, env.RoleAbility("emergency_heal"), TargetSelf)
}

func ActionStrongMitigation(env RuleEnv, sink host.ActionSink) bool {
	return castTracked(env, sink, env.RoleAbility("strong_mitigation"), TargetSelf)
}

func ActionShield(env RuleEnv, sink host.ActionSink) bool {
	return castTracked(env, sink, env.RoleAbility("shield"), TargetSelf)
}

// --- interrupt ---

// ActionInterrupt executes the triage plan. An area block consumes its
// once-per-buffer-window budget on success.
func ActionInterrupt(env RuleEnv, sink host.ActionSink) bool {
	choice := PlanInterrupt(env)
	if choice.Kind == InterruptNone {
		return false
	}
	if !castTracked(env, sink, choice.Ability, choice.Target) {
		return false
	}
	slog.Debug("interrupt dispatched", "kind", choice.Kind.String(), "ability", choice.Ability, "target", choice.Target)
	if choice.Kind == InterruptArea {
		markWindowUsed(env, choice.Ability)
	}
	return true
}

// --- combat ---

func ActionSpendPower(env RuleEnv, sink host.ActionSink) bool {
	return castTracked(env, sink, env.RoleAbility("power_spender"), targetOrSelf(env))
}

func ActionSlotStrike(env RuleEnv, sink host.ActionSink) bool {
	return castTracked(env, sink, AbilityReap, targetOrSelf(env))
}

func ActionApplyBlight(env RuleEnv, sink host.ActionSink) bool {
	return castTracked(env, sink, AbilityBlight, targetOrSelf(env))
}

func ActionAreaStrike(env RuleEnv, sink host.ActionSink) bool {
	return castTracked(env, sink, AbilityScythe, TargetSelf)
}

func ActionBurst(env RuleEnv, sink host.ActionSink) bool {
	return castTracked(env, sink, AbilityFrenzy, TargetSelf)
}

func ActionSignatureStrike(env RuleEnv, sink host.ActionSink) bool {
	return castTracked(env, sink, AbilityScourge, targetOrSelf(env))
}

// --- once-per-window bookkeeping ---

// windowAvailable reports whether the ability hasn't fired in the current
// buffer window. The window sequence number is advanced by the orchestrator
// when it observes a buffer refresh, so detection is tied to the refresh
// itself rather than a timestamp-gap heuristic.
func windowAvailable(env RuleEnv, ability string) bool {
	used, ok := windowUsedMap(env.Memory)[ability]
	return !ok || used != windowSeq(env.Memory)
}

func markWindowUsed(env RuleEnv, ability string) {
	windowUsedMap(env.Memory)[ability] = windowSeq(env.Memory)
}
