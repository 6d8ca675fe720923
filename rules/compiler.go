package rules

import (
	"fmt"

	"github.com/nholden/rotor/config"
)

// CompileProfile generates the complete rule list for a mode profile. All
// conditions are built via fmt.Sprintf with interpolated thresholds, so the
// compiler never generates invalid expr. Utility, defensive, and interrupt
// fragments are shared across every mode; only the combat fragment varies,
// and the untrained profile compiles no combat rules at all.
func CompileProfile(p Profile, cfg config.Settings) []*Rule {
	p.Validate()

	var out []*Rule
	out = append(out, utilityRules(cfg)...)
	if cfg.DefensivesEnabled {
		out = append(out, defensiveRules(p, cfg)...)
	}
	if cfg.InterruptsEnabled {
		out = append(out, interruptRules()...)
	}

	switch p.Mode {
	case ModeOnslaught:
		out = append(out, sharedCombatRules(p, cfg)...)
		out = append(out, onslaughtRules(p)...)
	case ModeReaping:
		out = append(out, sharedCombatRules(p, cfg)...)
		out = append(out, reapingRules(p)...)
	}
	// ModeUntrained: combat intentionally empty.

	return out
}

// --- shared fragments ---

func utilityRules(cfg config.Settings) []*Rule {
	return []*Rule{
		{
			Name:         "refresh-buffer",
			Priority:     1000,
			Category:     CategoryUtility,
			ConditionSrc: `GuardIs("refresh") && Ready("buffer_refresh")`,
			Action:       ActionRefreshBuffer,
		},
		{
			Name:     "survival-before-refresh",
			Priority: 990,
			Category: CategoryUtility,
			ConditionSrc: fmt.Sprintf(
				`GuardIs("survival") && Ready("emergency_heal") && Power() >= %g`,
				cfg.PowerSpendCost),
			Action: ActionSurvivalHeal,
		},
	}
}

func defensiveRules(p Profile, cfg config.Settings) []*Rule {
	// DefenseBias widens or tightens the mitigation gates around the
	// configured baselines.
	healthGate := clamp(cfg.MitigationHealthPct*lerpf(0.8, 1.2, p.DefenseBias), 0, 1)
	predictedGate := clamp(cfg.MitigationPredictedPct*lerpf(0.8, 1.2, p.DefenseBias), 0, 1)
	shieldHealthGate := clamp(cfg.MitigationHealthPct*lerpf(0.9, 1.3, p.DefenseBias), 0, 1)
	shieldGate := clamp(cfg.MitigationPredictedPct*lerpf(0.9, 1.3, p.DefenseBias), 0, 1)

	return []*Rule{
		{
			// Extreme severity: exempt from the anti-stacking check.
			Name:     "emergency-heal",
			Priority: 900,
			Category: CategoryDefensive,
			ConditionSrc: fmt.Sprintf(
				`HealthPct() <= %g && Ready("emergency_heal") && Power() >= %g`,
				cfg.HealthCriticalPct, cfg.PowerSpendCost),
			Action: ActionEmergencyHeal,
		},
		{
			Name:         "last-resort-shield",
			Priority:     880,
			Category:     CategoryDefensive,
			ConditionSrc: `Ready("shield") && LastResortShieldTrigger()`,
			Action:       ActionShield,
		},
		{
			Name:     "strong-mitigation",
			Priority: 860,
			Category: CategoryDefensive,
			ConditionSrc: fmt.Sprintf(
				`Ready("strong_mitigation") && MitigationAllowed() && HealthPct() <= %g && PredictedHealthPct() <= %g`,
				healthGate, predictedGate),
			Action: ActionStrongMitigation,
		},
		{
			Name:     "shield",
			Priority: 840,
			Category: CategoryDefensive,
			ConditionSrc: fmt.Sprintf(
				`Ready("shield") && HealthPct() <= %g && PredictedHealthPct() <= %g`,
				shieldHealthGate, shieldGate),
			Action: ActionShield,
		},
	}
}

func interruptRules() []*Rule {
	return []*Rule{
		{
			Name:         "triage-interrupt",
			Priority:     700,
			Category:     CategoryInterrupt,
			ConditionSrc: `HasInterruptTarget()`,
			Action:       ActionInterrupt,
		},
	}
}

func sharedCombatRules(p Profile, cfg config.Settings) []*Rule {
	// Aggression lowers the comfortable power floor toward the bare cost.
	spendFloor := cfg.PowerSpendCost + lerpf(30, 0, p.Aggression)

	return []*Rule{
		{
			// Passive generation plus strikes would overflow the cap;
			// dumping above the threshold avoids wasting generation.
			Name:     "avoid-power-cap",
			Priority: 500,
			Category: CategoryCombat,
			ConditionSrc: fmt.Sprintf(
				`TargetAttackable() && Power() >= %g && Ready("power_spender")`,
				cfg.PowerCapThreshold),
			Action: ActionSpendPower,
		},
		{
			Name:     "maintain-blight",
			Priority: lerp(420, 480, p.Aggression),
			Category: CategoryCombat,
			ConditionSrc: `TargetAttackable() && !StatusActive("blight") && AbilityReady("blight") && ` +
				`CanAffordSlots(1) && !SpendBlocked()`,
			Action: ActionApplyBlight,
		},
		{
			Name:     "spend-power",
			Priority: 400,
			Category: CategoryCombat,
			ConditionSrc: fmt.Sprintf(
				`TargetAttackable() && Power() >= %g && Ready("power_spender")`,
				spendFloor),
			Action: ActionSpendPower,
		},
		{
			Name:     "slot-strike",
			Priority: 380,
			Category: CategoryCombat,
			ConditionSrc: `TargetAttackable() && AbilityReady("reap") && CanAffordSlots(1) && ` +
				`!SpendBlocked()`,
			Action: ActionSlotStrike,
		},
	}
}

// --- mode-unique fragments ---

func onslaughtRules(p Profile) []*Rule {
	minLifetime := lerpf(10, 5, p.Aggression)
	return []*Rule{
		{
			Name:     "burst",
			Priority: 450,
			Category: CategoryCombat,
			ConditionSrc: fmt.Sprintf(
				`TargetAttackable() && AbilityReady("frenzy") && MeleeHostileCount() >= 1 && TargetTimeToDieSecs() >= %g`,
				minLifetime),
			Action: ActionBurst,
		},
	}
}

func reapingRules(p Profile) []*Rule {
	return []*Rule{
		{
			Name:     "area-strike",
			Priority: 440,
			Category: CategoryCombat,
			ConditionSrc: fmt.Sprintf(
				`AbilityReady("scythe") && MeleeHostileCount() >= %d && CanAffordSlots(1) && !SpendBlocked()`,
				p.AreaGroupSize),
			Action: ActionAreaStrike,
		},
		{
			Name:     "signature-strike",
			Priority: 430,
			Category: CategoryCombat,
			ConditionSrc: `TargetAttackable() && AbilityReady("scourge") && CanAffordSlots(1) && ` +
				`!SpendBlocked()`,
			Action: ActionSignatureStrike,
		},
	}
}
