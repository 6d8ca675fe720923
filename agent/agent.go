// Package agent wires the host bridge, the mode router, the diff-based event
// dispatcher, and the rule engine into the per-tick decision loop.
package agent

import (
	"fmt"
	"log/slog"

	"github.com/nholden/rotor/config"
	"github.com/nholden/rotor/forecast"
	"github.com/nholden/rotor/guard"
	"github.com/nholden/rotor/host"
	"github.com/nholden/rotor/model"
	"github.com/nholden/rotor/rules"
)

// Agent is the tick orchestrator. All state lives on the tick goroutine; the
// host guarantees non-overlapping tick callbacks.
type Agent struct {
	bridge host.Bridge
	cfg    config.Settings

	engine *rules.Engine
	router *Router
	events *Dispatcher

	mode    rules.Mode
	blocked bool
}

// New builds the agent with the untrained rule set active. The first tick
// with a detected capability swaps in the matching profile.
func New(bridge host.Bridge, cfg config.Settings) (*Agent, error) {
	profile := rules.ProfileFor(rules.ModeUntrained)
	engine, err := rules.NewEngine(rules.CompileProfile(profile, cfg))
	if err != nil {
		return nil, err
	}
	return &Agent{
		bridge: bridge,
		cfg:    cfg,
		engine: engine,
		router: NewRouter(rules.Mode(cfg.ModeOverride)),
		events: NewDispatcher(cfg.HealthCriticalPct),
		mode:   rules.ModeUntrained,
	}, nil
}

// Register hooks the agent into the host's tick driver.
func (a *Agent) Register(d host.Driver) {
	d.RegisterTickHandler(a.HandleTick)
}

// Events exposes the dispatcher for external subscribers.
func (a *Agent) Events() *Dispatcher { return a.events }

// Engine exposes the rule engine for inspection.
func (a *Agent) Engine() *rules.Engine { return a.engine }

// HandleTick runs one full decision pass: capture, diff, route, evaluate.
// It performs at most one action dispatch per invocation.
func (a *Agent) HandleTick() {
	snap := a.capture()

	for _, ev := range a.events.Observe(snap) {
		switch ev.Kind {
		case EventBufferRefreshed:
			// A refresh opens a new buffer window for once-per-window actions.
			a.engine.BumpWindow()
		case EventCapabilityChanged:
			a.router.Reset()
		case EventHealthCritical, EventHostileCastStart, EventBufferLapsed:
			slog.Info("event", "kind", string(ev.Kind), "tick", ev.Tick, "detail", ev.Detail)
		}
	}

	mode := a.router.Select(snap)
	if mode != a.mode {
		profile := rules.ProfileFor(mode)
		if err := a.engine.Swap(rules.CompileProfile(profile, a.cfg)); err != nil {
			slog.Error("profile swap failed, keeping previous rules", "mode", string(mode), "error", err)
		} else {
			slog.Info("mode changed", "from", string(a.mode), "to", string(mode))
			a.mode = mode
		}
	}

	fc := forecast.Forecast(snap.Slots)
	policy := guard.Policy{
		MinStacks:        a.cfg.BufferMinStacks,
		RefreshThreshold: a.cfg.BufferRefreshThreshold(),
		RefreshCost:      a.cfg.BufferRefreshCost,
		Window:           a.cfg.ForecastWindow(),
		Tick:             a.cfg.TickDuration(),
	}
	healthCritical := snap.Agent.Valid && snap.Agent.HealthPct <= a.cfg.HealthCriticalPct
	decision := guard.Assess(snap.Buffer, fc, healthCritical, policy)
	// The reservation case and the hard Block case both stop slot spending.
	blocked := guard.ShouldBlockSpending(snap.Buffer, fc, policy) ||
		decision == guard.DecisionBlock
	if blocked != a.blocked {
		a.blocked = blocked
		slog.Info("spend block changed", "tick", snap.Tick, "blocked", blocked)
		a.events.Emit(Event{
			Kind:   EventSpendBlockChanged,
			Tick:   snap.Tick,
			Detail: fmt.Sprintf("blocked=%v", blocked),
		})
	}

	env := rules.RuleEnv{
		Snap:    snap,
		Slots:   fc,
		Guard:   decision,
		Blocked: blocked,
		Cfg:     a.cfg,
	}
	a.engine.Evaluate(env, a.bridge)
}

// Mode returns the currently active profile mode.
func (a *Agent) Mode() rules.Mode { return a.mode }

// capture performs the tick's single pass of bridge queries. When the host
// reports the agent as missing, everything downstream sees a conservative
// empty snapshot: no pools, no hostiles, full health.
func (a *Agent) capture() model.Snapshot {
	snap := model.Snapshot{
		Tick: a.bridge.Tick(),
		Now:  a.bridge.Now(),
	}
	if !a.bridge.AgentValid() {
		snap.Agent = model.Agent{Valid: false, HealthPct: 1, PredictedHealthPct: 1}
		return snap
	}

	snap.Agent = model.Agent{
		Valid:              true,
		HealthPct:          a.bridge.HealthPct(),
		PredictedHealthPct: a.bridge.PredictedHealthPct(a.cfg.PredictedHealthHorizon()),
		Casting:            a.bridge.IsCasting(),
	}
	snap.Slots = model.SlotState{
		Valid:     true,
		Capacity:  a.bridge.SlotCapacity(),
		Available: a.bridge.SlotsAvailable(),
		Recharge:  a.bridge.SlotRecharge(),
	}
	snap.Power = model.PowerState{
		Amount: a.bridge.PowerAmount(),
		Max:    a.bridge.PowerMax(),
	}
	snap.Buffer = model.BufferState{
		Present:   a.bridge.StatusActive(rules.StatusWard),
		Stacks:    a.bridge.StatusStacks(rules.StatusWard),
		Remaining: a.bridge.StatusRemaining(rules.StatusWard),
	}

	snap.Statuses = make(map[string]model.Status, len(rules.StatusIDs()))
	for _, id := range rules.StatusIDs() {
		if !a.bridge.StatusActive(id) {
			continue
		}
		snap.Statuses[id] = model.Status{
			Remaining: a.bridge.StatusRemaining(id),
			Stacks:    a.bridge.StatusStacks(id),
		}
	}

	snap.Abilities = make(map[string]model.Ability, len(rules.AbilityIDs()))
	for _, id := range rules.AbilityIDs() {
		snap.Abilities[id] = model.Ability{
			Learned:   a.bridge.IsLearned(id),
			Available: a.bridge.IsAvailable(id),
			Charges:   a.bridge.Charges(id),
			Cooldown:  a.bridge.CooldownRemaining(id),
		}
	}

	snap.Target = a.bridge.Target()
	snap.Hostiles = a.bridge.NearbyHostiles(a.cfg.HostileRadius)
	return snap
}
