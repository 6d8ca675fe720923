package rules

import (
	"time"

	"github.com/nholden/rotor/config"
	"github.com/nholden/rotor/forecast"
	"github.com/nholden/rotor/guard"
	"github.com/nholden/rotor/model"
)

// RuleEnv wraps one tick's snapshot plus the derived forecast and guard
// decision, and exposes helper methods callable from expr conditions. It is
// read-only for the duration of rule evaluation; Memory is the engine's
// cross-tick scratch space and the only mutable field.
type RuleEnv struct {
	Snap    model.Snapshot
	Slots   forecast.Result
	Guard   guard.Decision
	Blocked bool // ShouldBlockSpending outcome for this tick
	Cfg     config.Settings
	Memory  map[string]any
}

// --- discrete pool ---

func (e RuleEnv) SlotsAvailable() int { return e.Slots.Current }

func (e RuleEnv) CanAffordSlots(n int) bool { return e.Slots.Current >= n }

// SlotsSoon reports affordability within the forecast window plus one tick.
func (e RuleEnv) SlotsSoon(n int) bool {
	return e.Slots.CanAffordSoon(n, e.Cfg.ForecastWindow(), e.Cfg.TickDuration())
}

// SpendBlocked is true while the guard reserves slots for the buffer refresh.
// SpendBlocked reports whether discretionary slot spending is withheld:
// either the refresh reservation is active, or the refresh is unaffordable
// now and not soon, in which case every remaining slot is held for it.
func (e RuleEnv) SpendBlocked() bool {
	return e.Blocked || e.Guard == guard.DecisionBlock
}

func (e RuleEnv) GuardIs(decision string) bool { return e.Guard.String() == decision }

// --- continuous pool ---

func (e RuleEnv) Power() float64        { return e.Snap.Power.Amount }
func (e RuleEnv) PowerMax() float64     { return e.Snap.Power.Max }
func (e RuleEnv) PowerDeficit() float64 { return e.Snap.Power.Deficit() }

// --- buffer ---

func (e RuleEnv) BufferPresent() bool { return e.Snap.Buffer.Present }
func (e RuleEnv) BufferStacks() int   { return e.Snap.Buffer.Stacks }

func (e RuleEnv) BufferRemainingSecs() float64 {
	return e.Snap.Buffer.Remaining.Seconds()
}

// --- agent vitals ---

// HealthPct defaults to full health when the agent snapshot is invalid so a
// missing entity never triggers false emergency behavior.
func (e RuleEnv) HealthPct() float64 {
	if !e.Snap.Agent.Valid {
		return 1.0
	}
	return e.Snap.Agent.HealthPct
}

func (e RuleEnv) PredictedHealthPct() float64 {
	if !e.Snap.Agent.Valid {
		return 1.0
	}
	return e.Snap.Agent.PredictedHealthPct
}

func (e RuleEnv) HealthCritical() bool {
	return e.HealthPct() <= e.Cfg.HealthCriticalPct
}

func (e RuleEnv) SelfCasting() bool { return e.Snap.Agent.Casting }

// --- abilities and roles ---

func (e RuleEnv) AbilityLearned(id string) bool {
	return e.Snap.Abilities[id].Learned
}

func (e RuleEnv) AbilityReady(id string) bool {
	a, ok := e.Snap.Abilities[id]
	return ok && a.Learned && a.Available
}

func (e RuleEnv) AbilityCharges(id string) int {
	return e.Snap.Abilities[id].Charges
}

// Learned reports whether any ability filling the logical role is learned.
func (e RuleEnv) Learned(roleName string) bool {
	for _, id := range roles[roleName].abilities {
		if e.AbilityLearned(id) {
			return true
		}
	}
	return false
}

// Ready reports whether any ability filling the logical role is castable now.
func (e RuleEnv) Ready(roleName string) bool {
	return e.RoleAbility(roleName) != ""
}

// RoleAbility resolves the first learned, available ability for the role, or
// "" when none qualifies.
func (e RuleEnv) RoleAbility(roleName string) string {
	for _, id := range roles[roleName].abilities {
		if e.AbilityReady(id) {
			return id
		}
	}
	return ""
}

func (e RuleEnv) Charges(roleName string) int {
	n := 0
	for _, id := range roles[roleName].abilities {
		n += e.AbilityCharges(id)
	}
	return n
}

// --- statuses ---

func (e RuleEnv) StatusActive(id string) bool {
	s, ok := e.Snap.Statuses[id]
	return ok && s.Remaining > 0
}

func (e RuleEnv) StatusRemainingSecs(id string) float64 {
	return e.Snap.Statuses[id].Remaining.Seconds()
}

func (e RuleEnv) StatusStacks(id string) int {
	return e.Snap.Statuses[id].Stacks
}

// ActiveStrongMitigations counts currently-active strong mitigation effects
// for the anti-stacking check.
func (e RuleEnv) ActiveStrongMitigations() int {
	n := 0
	for _, id := range strongMitigations {
		if e.StatusActive(id) {
			n++
		}
	}
	return n
}

// --- target and hostiles ---

func (e RuleEnv) TargetPresent() bool    { return e.Snap.Target.Present }
func (e RuleEnv) TargetAttackable() bool { return e.Snap.Target.Present && e.Snap.Target.Attackable }

func (e RuleEnv) TargetTimeToDieSecs() float64 {
	if !e.Snap.Target.Present {
		return 0
	}
	return e.Snap.Target.TimeToDie.Seconds()
}

func (e RuleEnv) HostileCount() int { return len(e.Snap.Hostiles) }

func (e RuleEnv) MeleeHostileCount() int {
	n := 0
	for _, h := range e.Snap.Hostiles {
		if h.Distance <= e.Cfg.MeleeRange {
			n++
		}
	}
	return n
}

// CastIncoming reports whether any nearby hostile has an activity in
// progress, regardless of the triage eligibility window.
func (e RuleEnv) CastIncoming() bool {
	for _, h := range e.Snap.Hostiles {
		if h.Cast.Active {
			return true
		}
	}
	return false
}

// InterruptEligible filters hostiles to those whose activity sits inside the
// configured window: casts barely started and casts about to complete are
// excluded to avoid wasted resources.
func (e RuleEnv) InterruptEligible() []model.Hostile {
	var out []model.Hostile
	for _, h := range e.Snap.Hostiles {
		if !h.Cast.Active {
			continue
		}
		if h.Cast.Elapsed < e.Cfg.InterruptMinElapsed() {
			continue
		}
		if h.Cast.Remaining < e.Cfg.InterruptMinRemaining() {
			continue
		}
		if h.Cast.Remaining > e.Cfg.InterruptMaxRemaining() {
			continue
		}
		out = append(out, h)
	}
	return out
}

func (e RuleEnv) HasInterruptTarget() bool {
	return len(e.InterruptEligible()) > 0
}

// AllInterruptsUnavailable is the last-resort trigger: every blocking and
// incapacitation option is on cooldown or out of charges.
func (e RuleEnv) AllInterruptsUnavailable() bool {
	return !e.Ready("direct_interrupt") &&
		!e.Ready("incapacitate") &&
		!e.Ready("area_interrupt") &&
		!e.Ready("displacement")
}

// --- cross-tick memory helpers ---

const (
	memLastUse    = "lastUse"    // map[string]time.Time, per sensitive ability
	memWindowSeq  = "windowSeq"  // int, bumped on each buffer refresh
	memWindowUsed = "windowUsed" // map[string]int, ability → window seq at last use
)

// ReuseReady reports whether the ability's minimum inter-use interval has
// elapsed since its last successful dispatch. Non-sensitive abilities are
// always ready.
func (e RuleEnv) ReuseReady(ability string) bool {
	if !Sensitive(ability) {
		return true
	}
	last, ok := lastUseMap(e.Memory)[ability]
	if !ok {
		return true
	}
	return e.Snap.Now.Sub(last) >= e.Cfg.MinReuseInterval()
}

func lastUseMap(memory map[string]any) map[string]time.Time {
	if m, ok := memory[memLastUse].(map[string]time.Time); ok {
		return m
	}
	m := make(map[string]time.Time)
	if memory != nil {
		memory[memLastUse] = m
	}
	return m
}

func windowSeq(memory map[string]any) int {
	if v, ok := memory[memWindowSeq].(int); ok {
		return v
	}
	return 0
}

func windowUsedMap(memory map[string]any) map[string]int {
	if m, ok := memory[memWindowUsed].(map[string]int); ok {
		return m
	}
	m := make(map[string]int)
	if memory != nil {
		memory[memWindowUsed] = m
	}
	return m
}
