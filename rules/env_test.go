package rules

import (
	"testing"
	"time"

	"github.com/nholden/rotor/config"
	"github.com/nholden/rotor/forecast"
	"github.com/nholden/rotor/guard"
	"github.com/nholden/rotor/host"
	"github.com/nholden/rotor/model"
)

func TestRoleAbilityPreferenceOrder(t *testing.T) {
	env := RuleEnv{
		Snap: model.Snapshot{
			Abilities: map[string]model.Ability{
				AbilityReap:   {Learned: true, Available: true},
				AbilityScythe: {Learned: true, Available: true},
			},
		},
	}
	if got := env.RoleAbility("slot_spender"); got != AbilityReap {
		t.Errorf("expected first preference %q, got %q", AbilityReap, got)
	}

	// First preference unavailable: the role resolves to the next one.
	env.Snap.Abilities[AbilityReap] = model.Ability{Learned: true, Available: false}
	if got := env.RoleAbility("slot_spender"); got != AbilityScythe {
		t.Errorf("expected fallback %q, got %q", AbilityScythe, got)
	}

	env.Snap.Abilities[AbilityScythe] = model.Ability{Learned: false}
	if got := env.RoleAbility("slot_spender"); got != "" {
		t.Errorf("expected no resolution, got %q", got)
	}
}

func TestHealthDefaultsWhenInvalid(t *testing.T) {
	env := RuleEnv{Snap: model.Snapshot{Agent: model.Agent{Valid: false, HealthPct: 0}}}
	if got := env.HealthPct(); got != 1 {
		t.Errorf("invalid agent should read as full health, got %v", got)
	}
	if env.HealthCritical() {
		t.Error("invalid agent must not register as critical")
	}
}

func TestGuardIs(t *testing.T) {
	env := RuleEnv{Guard: guard.DecisionRefresh}
	if !env.GuardIs("refresh") {
		t.Error("GuardIs(refresh) should hold")
	}
	if env.GuardIs("block") {
		t.Error("GuardIs(block) should not hold")
	}
}

func TestMeleeHostileCount(t *testing.T) {
	env := RuleEnv{
		Cfg: config.Default(),
		Snap: model.Snapshot{Hostiles: []model.Hostile{
			{ID: 1, Distance: 2},
			{ID: 2, Distance: 5},
			{ID: 3, Distance: 5.1},
		}},
	}
	if got := env.MeleeHostileCount(); got != 2 {
		t.Errorf("MeleeHostileCount = %d, want 2", got)
	}
	if got := env.HostileCount(); got != 3 {
		t.Errorf("HostileCount = %d, want 3", got)
	}
}

func TestActiveStrongMitigations(t *testing.T) {
	env := RuleEnv{
		Snap: model.Snapshot{Statuses: map[string]model.Status{
			StatusIronhide: {Remaining: 4 * time.Second},
			StatusCarapace: {Remaining: 4 * time.Second}, // shield, not counted
		}},
	}
	if got := env.ActiveStrongMitigations(); got != 1 {
		t.Errorf("ActiveStrongMitigations = %d, want 1", got)
	}
}

// Power spending above the cap threshold must survive a spend block: the
// continuous resource is not gated by the discrete-slot guard.
func TestPowerDumpIgnoresSlotBlock(t *testing.T) {
	cfg := config.Default()
	engine, err := NewEngine(CompileProfile(ProfileFor(ModeOnslaught), cfg))
	if err != nil {
		t.Fatal(err)
	}

	abilities := map[string]model.Ability{
		AbilitySurge: {Learned: true, Available: true},
		AbilityReap:  {Learned: true, Available: true},
	}
	env := RuleEnv{
		Snap: model.Snapshot{
			Tick: 1,
			Now:  time.Unix(100, 0),
			Agent: model.Agent{
				Valid: true, HealthPct: 0.9, PredictedHealthPct: 0.9,
			},
			Power:  model.PowerState{Amount: 92, Max: 100},
			Buffer: model.BufferState{Present: true, Stacks: 2, Remaining: 10 * time.Second},
			Target: model.TargetInfo{Present: true, ID: 1, Attackable: true, TimeToDie: time.Minute},
			Abilities: abilities,
		},
		Slots:   forecast.Forecast(model.SlotState{Valid: true, Capacity: 6, Available: 0, Recharge: rechargeList(6, 2*time.Second)}),
		Guard:   guard.DecisionDefer,
		Blocked: true,
		Cfg:     cfg,
	}

	sink := &scriptedSink{}
	if !engine.Evaluate(env, sink) {
		t.Fatal("expected the power dump to fire")
	}
	if sink.calls[0] != AbilitySurge {
		t.Errorf("expected %q dispatch, got %v", AbilitySurge, sink.calls)
	}
}

// Slot strikes are withheld while the refresh reservation is active, even
// with a slot free.
func TestSlotStrikeRespectsBlock(t *testing.T) {
	cfg := config.Default()
	engine, err := NewEngine(CompileProfile(ProfileFor(ModeOnslaught), cfg))
	if err != nil {
		t.Fatal(err)
	}

	env := RuleEnv{
		Snap: model.Snapshot{
			Tick: 1,
			Now:  time.Unix(100, 0),
			Agent: model.Agent{
				Valid: true, HealthPct: 0.9, PredictedHealthPct: 0.9,
			},
			Power:  model.PowerState{Amount: 10, Max: 100},
			Buffer: model.BufferState{Present: true, Stacks: 2, Remaining: 10 * time.Second},
			Target: model.TargetInfo{Present: true, ID: 1, Attackable: true, TimeToDie: time.Minute},
			Abilities: map[string]model.Ability{
				AbilityReap: {Learned: true, Available: true},
			},
		},
		Slots:   forecast.Forecast(model.SlotState{Valid: true, Capacity: 6, Available: 1, Recharge: rechargeList(5, 2*time.Second)}),
		Guard:   guard.DecisionDefer,
		Blocked: true,
		Cfg:     cfg,
	}

	sink := &scriptedSink{}
	if engine.Evaluate(env, sink) {
		t.Errorf("expected no dispatch while spending is blocked, got %v", sink.calls)
	}
}

// With the refresh unaffordable now and not soon, the last free slot is held
// for it even though no reservation is active.
func TestSlotStrikeWithheldUnderHardBlock(t *testing.T) {
	cfg := config.Default()
	engine, err := NewEngine(CompileProfile(ProfileFor(ModeOnslaught), cfg))
	if err != nil {
		t.Fatal(err)
	}

	slots := model.SlotState{Valid: true, Capacity: 6, Available: 1, Recharge: rechargeList(5, 8*time.Second)}
	fc := forecast.Forecast(slots)
	pol := guard.Policy{
		MinStacks:        cfg.BufferMinStacks,
		RefreshThreshold: cfg.BufferRefreshThreshold(),
		RefreshCost:      cfg.BufferRefreshCost,
		Window:           cfg.ForecastWindow(),
		Tick:             cfg.TickDuration(),
	}
	buffer := model.BufferState{Present: true, Stacks: 2, Remaining: 8 * time.Second}

	decision := guard.Assess(buffer, fc, false, pol)
	if decision != guard.DecisionBlock {
		t.Fatalf("Assess = %v, want block", decision)
	}
	blocked := guard.ShouldBlockSpending(buffer, fc, pol)
	if blocked {
		t.Fatal("reservation should not be active when the refresh is out of the window")
	}

	env := RuleEnv{
		Snap: model.Snapshot{
			Tick: 1,
			Now:  time.Unix(100, 0),
			Agent: model.Agent{
				Valid: true, HealthPct: 0.9, PredictedHealthPct: 0.9,
			},
			Power:  model.PowerState{Amount: 10, Max: 100},
			Buffer: buffer,
			Target: model.TargetInfo{Present: true, ID: 1, Attackable: true, TimeToDie: time.Minute},
			Abilities: map[string]model.Ability{
				AbilityReap:   {Learned: true, Available: true},
				AbilityBlight: {Learned: true, Available: true},
			},
		},
		Slots:   fc,
		Guard:   decision,
		Blocked: blocked,
		Cfg:     cfg,
	}

	sink := &scriptedSink{}
	if engine.Evaluate(env, sink) {
		t.Errorf("slot spent while the refresh is unreachable: dispatched %v", sink.calls)
	}
}

func rechargeList(n int, d time.Duration) []time.Duration {
	out := make([]time.Duration, n)
	for i := range out {
		out[i] = d
	}
	return out
}

func TestCastTrackedRecordsLastUse(t *testing.T) {
	env := RuleEnv{
		Snap: model.Snapshot{
			Now: time.Unix(100, 0),
			Abilities: map[string]model.Ability{
				AbilityQuell: {Learned: true, Available: true},
			},
		},
		Cfg:    config.Default(),
		Memory: map[string]any{},
	}

	sink := &scriptedSink{}
	if !castTracked(env, sink, AbilityQuell, 1) {
		t.Fatal("expected dispatch")
	}
	if got := lastUseMap(env.Memory)[AbilityQuell]; !got.Equal(env.Snap.Now) {
		t.Errorf("last use not recorded: %v", got)
	}

	// A rejected dispatch leaves no record.
	env.Memory = map[string]any{}
	rejecting := &scriptedSink{reject: map[string]bool{AbilityQuell: true}}
	if castTracked(env, rejecting, AbilityQuell, 1) {
		t.Fatal("expected rejection")
	}
	if _, ok := lastUseMap(env.Memory)[AbilityQuell]; ok {
		t.Error("rejected dispatch must not record last use")
	}
}

var _ host.ActionSink = (*scriptedSink)(nil)
