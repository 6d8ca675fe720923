package rules

import (
	"testing"
	"time"

	"github.com/nholden/rotor/config"
	"github.com/nholden/rotor/model"
)

func defenseEnv(healthPct, predictedPct float64, statuses map[string]model.Status) RuleEnv {
	return RuleEnv{
		Snap: model.Snapshot{
			Tick: 1,
			Now:  time.Unix(100, 0),
			Agent: model.Agent{
				Valid:              true,
				HealthPct:          healthPct,
				PredictedHealthPct: predictedPct,
			},
			Power:    model.PowerState{Amount: 100, Max: 100},
			Buffer:   model.BufferState{Present: true, Stacks: 8, Remaining: 10 * time.Second},
			Target:   model.TargetInfo{Present: true, ID: 1, Attackable: true, TimeToDie: time.Minute},
			Statuses: statuses,
			Abilities: map[string]model.Ability{
				AbilitySurge:     {Learned: true, Available: true},
				AbilityIronhide:  {Learned: true, Available: true},
				AbilityStoneform: {Learned: true, Available: true},
				AbilityCarapace:  {Learned: true, Available: true},
			},
		},
		Cfg: config.Default(),
	}
}

func TestMitigationAllowed(t *testing.T) {
	tests := []struct {
		name     string
		statuses map[string]model.Status
		want     bool
	}{
		{"nothing active", nil, true},
		{"one strong effect", map[string]model.Status{
			StatusIronhide: {Remaining: 4 * time.Second},
		}, true},
		{"at the cap", map[string]model.Status{
			StatusIronhide:  {Remaining: 4 * time.Second},
			StatusStoneform: {Remaining: 4 * time.Second},
		}, false},
		{"shield does not count", map[string]model.Status{
			StatusIronhide: {Remaining: 4 * time.Second},
			StatusCarapace: {Remaining: 4 * time.Second},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := defenseEnv(0.5, 0.4, tt.statuses)
			if got := env.MitigationAllowed(); got != tt.want {
				t.Errorf("MitigationAllowed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEmergencyHealExemptFromStacking(t *testing.T) {
	// Both strong effects are running; a new mitigation is withheld, but at
	// extreme severity the heal still fires.
	statuses := map[string]model.Status{
		StatusIronhide:  {Remaining: 4 * time.Second},
		StatusStoneform: {Remaining: 4 * time.Second},
	}
	engine, err := NewEngine(CompileProfile(ProfileFor(ModeUntrained), config.Default()))
	if err != nil {
		t.Fatal(err)
	}

	env := defenseEnv(0.2, 0.1, statuses)
	sink := &scriptedSink{}
	if !engine.Evaluate(env, sink) {
		t.Fatal("expected the emergency heal to fire")
	}
	if sink.calls[0] != AbilitySurge {
		t.Errorf("expected %q, got %v", AbilitySurge, sink.calls)
	}
}

func TestStrongMitigationWithheldAtCap(t *testing.T) {
	statuses := map[string]model.Status{
		StatusIronhide:  {Remaining: 4 * time.Second},
		StatusStoneform: {Remaining: 4 * time.Second},
	}
	env := defenseEnv(0.5, 0.45, statuses)
	// Surge is out of power so the emergency branch can't shadow the check.
	env.Snap.Power.Amount = 0

	engine, err := NewEngine(CompileProfile(ProfileFor(ModeUntrained), config.Default()))
	if err != nil {
		t.Fatal(err)
	}
	sink := &scriptedSink{}
	engine.Evaluate(env, sink)
	for _, call := range sink.calls {
		if call == AbilityIronhide || call == AbilityStoneform {
			t.Errorf("strong mitigation dispatched while at the stacking cap: %v", sink.calls)
		}
	}
}

func TestShieldNeedsBothHealthGates(t *testing.T) {
	engine, err := NewEngine(CompileProfile(ProfileFor(ModeUntrained), config.Default()))
	if err != nil {
		t.Fatal(err)
	}
	shieldOnly := func(healthPct, predictedPct float64) RuleEnv {
		env := defenseEnv(healthPct, predictedPct, nil)
		env.Snap.Abilities = map[string]model.Ability{
			AbilityCarapace: {Learned: true, Available: true},
		}
		return env
	}

	// A predicted dip alone does not trigger the shield at full health.
	env := shieldOnly(0.95, 0.4)
	sink := &scriptedSink{}
	if engine.Evaluate(env, sink) {
		t.Errorf("shield dispatched at full current health: %v", sink.calls)
	}

	// Both gates low: the shield fires.
	env = shieldOnly(0.5, 0.4)
	sink = &scriptedSink{}
	if !engine.Evaluate(env, sink) {
		t.Fatal("expected the shield to fire")
	}
	if sink.calls[0] != AbilityCarapace {
		t.Errorf("expected %q, got %v", AbilityCarapace, sink.calls)
	}
}

func TestLastResortShieldTrigger(t *testing.T) {
	base := defenseEnv(0.9, 0.85, nil)
	base.Snap.Hostiles = []model.Hostile{
		{ID: 2, Distance: 10, Cast: model.Cast{Active: true, Remaining: 2 * time.Second}},
	}
	// Every interrupt option is missing from the kit.
	if !base.AllInterruptsUnavailable() {
		t.Fatal("precondition: interrupts should be unavailable")
	}
	if !base.LastResortShieldTrigger() {
		t.Error("expected the last-resort trigger to hold")
	}

	t.Run("needs an incoming activity", func(t *testing.T) {
		env := base
		env.Snap.Hostiles = nil
		if env.LastResortShieldTrigger() {
			t.Error("trigger held without an incoming activity")
		}
	})

	t.Run("needs a lasting target", func(t *testing.T) {
		env := base
		env.Snap.Target.TimeToDie = 3 * time.Second
		if env.LastResortShieldTrigger() {
			t.Error("trigger held on a dying target")
		}
	})

	t.Run("held back when a block is castable", func(t *testing.T) {
		env := base
		env.Snap.Abilities[AbilityQuell] = model.Ability{Learned: true, Available: true}
		defer delete(env.Snap.Abilities, AbilityQuell)
		if env.LastResortShieldTrigger() {
			t.Error("trigger held while a direct block was castable")
		}
	})
}
