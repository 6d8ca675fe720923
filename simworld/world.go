// Package simworld is a deterministic in-process host: a scripted encounter
// that implements the bridge and tick driver so the decision core can run
// end to end without a live game process.
package simworld

import (
	"log/slog"
	"time"

	"github.com/nholden/rotor/config"
	"github.com/nholden/rotor/host"
	"github.com/nholden/rotor/model"
	"github.com/nholden/rotor/rules"
)

const (
	defaultSlotCapacity = 6
	defaultSlotRecharge = 9 * time.Second
	defaultPowerMax     = 100
	defaultHealthMax    = 1000

	wardDuration  = 15 * time.Second
	wardStacksPer = 5

	statusDuration = 8 * time.Second
	castPowerGain  = 10
	healAmount     = 250
)

type abilityState struct {
	learned    bool
	cooldown   time.Duration
	cooldownAt time.Duration // remaining; zero means ready
	charges    int
	maxCharges int
	slotCost   int
	powerCost  float64
}

type hostileState struct {
	id            int
	distance      float64
	attackable    bool
	incapacitated bool
	health        float64

	cast        model.Cast
	castDamage  float64
	castStartAt int // tick at which the scripted activity begins
	castLength  time.Duration
	blockable   bool
	magical     bool
}

// World holds the whole simulated encounter. Not safe for concurrent use;
// Step and all bridge queries must run on one goroutine, which matches the
// non-overlapping tick contract.
type World struct {
	cfg  config.Settings
	tick int
	now  time.Time

	handlers []func()

	health    float64
	maxHealth float64
	incoming  float64 // sustained damage per second
	casting   bool

	slotCapacity int
	recharge     []time.Duration

	power    float64
	powerMax float64

	statuses  map[string]*model.Status
	abilities map[string]*abilityState

	hostiles []*hostileState

	rec *host.RecordingSink
}

// New builds the default encounter: one attackable boss in melee range that
// ramps sustained damage, plus caster adds that begin blockable and
// unblockable activities on a fixed schedule.
func New(cfg config.Settings) *World {
	w := &World{
		cfg:          cfg,
		now:          time.Unix(0, 0),
		health:       defaultHealthMax,
		maxHealth:    defaultHealthMax,
		incoming:     25,
		slotCapacity: defaultSlotCapacity,
		power:        20,
		powerMax:     defaultPowerMax,
		statuses:     make(map[string]*model.Status),
		abilities:    make(map[string]*abilityState),
	}
	w.rec = host.NewRecordingSink(worldSink{w}, func() int { return w.tick })

	for _, id := range rules.AbilityIDs() {
		w.abilities[id] = &abilityState{learned: true, cooldown: 3 * time.Second, charges: 1, maxCharges: 1}
	}
	w.abilities[rules.AbilityBolster].slotCost = cfg.BufferRefreshCost
	w.abilities[rules.AbilityBolster].cooldown = 0
	w.abilities[rules.AbilityReap].slotCost = 1
	w.abilities[rules.AbilityReap].cooldown = 0
	w.abilities[rules.AbilityScythe].slotCost = 1
	w.abilities[rules.AbilityScythe].cooldown = 0
	w.abilities[rules.AbilityBlight].slotCost = 1
	w.abilities[rules.AbilityBlight].cooldown = 0
	w.abilities[rules.AbilitySurge].powerCost = cfg.PowerSpendCost
	w.abilities[rules.AbilitySurge].cooldown = 0
	w.abilities[rules.AbilityQuell].cooldown = 15 * time.Second
	w.abilities[rules.AbilityShackle].cooldown = 45 * time.Second
	w.abilities[rules.AbilityTempest].cooldown = 20 * time.Second
	w.abilities[rules.AbilityGrasp].cooldown = 8 * time.Second
	w.abilities[rules.AbilityGrasp].charges = 2
	w.abilities[rules.AbilityGrasp].maxCharges = 2
	w.abilities[rules.AbilityIronhide].cooldown = 60 * time.Second
	w.abilities[rules.AbilityStoneform].cooldown = 60 * time.Second
	w.abilities[rules.AbilityCarapace].cooldown = 30 * time.Second
	w.abilities[rules.AbilityFrenzy].cooldown = 90 * time.Second
	// Single capability signature: frenzy learned, scourge not.
	w.abilities[rules.AbilityScourge].learned = false

	w.hostiles = []*hostileState{
		{id: 1, distance: 3, attackable: true, health: 50000},
		{id: 2, distance: 12, attackable: true, health: 4000,
			castStartAt: 40, castLength: 2500 * time.Millisecond, blockable: true, magical: true, castDamage: 150},
		{id: 3, distance: 20, attackable: true, health: 4000,
			castStartAt: 120, castLength: 3 * time.Second, blockable: false, magical: false, castDamage: 300},
	}
	return w
}

// SetLearned rewires a capability signature mid-run, for probing scenarios.
func (w *World) SetLearned(ability string, learned bool) {
	if a, ok := w.abilities[ability]; ok {
		a.learned = learned
	}
}

// Requests returns every recorded dispatch so far.
func (w *World) Requests() []host.CastRequest { return w.rec.Requests }

// --- driver ---

func (w *World) RegisterTickHandler(fn func()) {
	w.handlers = append(w.handlers, fn)
}

// Step advances the world by one tick and then invokes the registered
// handlers. The caller owns cadence; time inside the world is synthetic.
func (w *World) Step() {
	dt := w.cfg.TickDuration()
	w.tick++
	w.now = w.now.Add(dt)

	w.advanceSlots(dt)
	w.advanceStatuses(dt)
	w.advanceAbilities(dt)
	w.advanceHostiles(dt)
	w.applyDamage(dt)

	for _, fn := range w.handlers {
		fn()
	}
}

func (w *World) advanceSlots(dt time.Duration) {
	next := w.recharge[:0]
	for _, r := range w.recharge {
		if r > dt {
			next = append(next, r-dt)
		}
	}
	w.recharge = next
}

func (w *World) advanceStatuses(dt time.Duration) {
	for id, s := range w.statuses {
		s.Remaining -= dt
		if s.Remaining <= 0 {
			delete(w.statuses, id)
		}
	}
}

func (w *World) advanceAbilities(dt time.Duration) {
	for _, a := range w.abilities {
		if a.cooldownAt > 0 {
			a.cooldownAt -= dt
			if a.cooldownAt <= 0 {
				a.cooldownAt = 0
				if a.charges < a.maxCharges {
					a.charges++
					if a.charges < a.maxCharges {
						a.cooldownAt = a.cooldown
					}
				}
			}
		}
	}
}

func (w *World) advanceHostiles(dt time.Duration) {
	for _, h := range w.hostiles {
		if h.incapacitated {
			continue
		}
		if !h.cast.Active && h.castStartAt > 0 && w.tick >= h.castStartAt {
			h.cast = model.Cast{
				Active:    true,
				Blockable: h.blockable,
				Magical:   h.magical,
				Remaining: h.castLength,
			}
			// Reschedule so the add keeps recasting.
			h.castStartAt = w.tick + 200
			continue
		}
		if h.cast.Active {
			h.cast.Elapsed += dt
			h.cast.Remaining -= dt
			if h.cast.Remaining <= 0 {
				// Activity landed.
				w.health -= h.castDamage * w.mitigationFactor()
				h.cast = model.Cast{}
			}
		}
	}
}

func (w *World) applyDamage(dt time.Duration) {
	dmg := w.incoming * dt.Seconds() * w.mitigationFactor()
	// The ward soaks a share of sustained damage per stack.
	if ward, ok := w.statuses[rules.StatusWard]; ok && ward.Stacks > 0 {
		dmg *= 1 - 0.06*float64(ward.Stacks)
	}
	w.health -= dmg
	if w.health < 0 {
		w.health = 0
	}
	// Sustained pressure ramps slowly.
	w.incoming += 0.2 * dt.Seconds()
	// Passive power trickle from being attacked.
	w.power += 3 * dt.Seconds()
	if w.power > w.powerMax {
		w.power = w.powerMax
	}
}

func (w *World) mitigationFactor() float64 {
	f := 1.0
	if _, ok := w.statuses[rules.StatusIronhide]; ok {
		f *= 0.7
	}
	if _, ok := w.statuses[rules.StatusStoneform]; ok {
		f *= 0.8
	}
	if _, ok := w.statuses[rules.StatusCarapace]; ok {
		f *= 0.85
	}
	return f
}

// --- action sink ---

// Cast applies the ability's simulated effect, journaling the dispatch.
// Returns false when the world rejects it, mirroring a real host's range and
// state checks.
func (w *World) Cast(ability string, target int) bool {
	return w.rec.Cast(ability, target)
}

// worldSink is the raw cast primitive behind the journal.
type worldSink struct{ w *World }

func (s worldSink) Cast(ability string, target int) bool {
	accepted := s.w.tryCast(ability, target)
	if accepted {
		slog.Debug("world accepted cast", "tick", s.w.tick, "ability", ability, "target", target)
	}
	return accepted
}

func (w *World) tryCast(ability string, target int) bool {
	a, ok := w.abilities[ability]
	if !ok || !a.learned {
		return false
	}
	if a.maxCharges > 1 {
		if a.charges == 0 {
			return false
		}
	} else if a.cooldownAt > 0 {
		return false
	}
	free := w.slotCapacity - len(w.recharge)
	if a.slotCost > free {
		return false
	}
	if a.powerCost > w.power {
		return false
	}
	if target != 0 && w.hostile(target) == nil {
		return false
	}

	for i := 0; i < a.slotCost; i++ {
		w.recharge = append(w.recharge, defaultSlotRecharge)
	}
	w.power -= a.powerCost
	if a.maxCharges > 1 {
		a.charges--
		if a.cooldownAt == 0 {
			a.cooldownAt = a.cooldown
		}
	} else if a.cooldown > 0 {
		a.cooldownAt = a.cooldown
	}

	w.applyEffect(ability, target)
	return true
}

func (w *World) applyEffect(ability string, target int) {
	switch ability {
	case rules.AbilityBolster:
		ward := w.statuses[rules.StatusWard]
		stacks := wardStacksPer
		if ward != nil {
			stacks = ward.Stacks + wardStacksPer
		}
		if stacks > w.cfg.BufferMaxStacks {
			stacks = w.cfg.BufferMaxStacks
		}
		w.statuses[rules.StatusWard] = &model.Status{Remaining: wardDuration, Stacks: stacks}
	case rules.AbilityReap, rules.AbilityScythe:
		w.power += castPowerGain
		if w.power > w.powerMax {
			w.power = w.powerMax
		}
		w.damageHostile(target, 120)
	case rules.AbilityBlight:
		w.statuses[rules.StatusBlight] = &model.Status{Remaining: 12 * time.Second, Stacks: 1}
		w.damageHostile(target, 40)
	case rules.AbilitySurge:
		w.health += healAmount
		if w.health > w.maxHealth {
			w.health = w.maxHealth
		}
	case rules.AbilityQuell:
		if h := w.hostile(target); h != nil && h.cast.Active && h.cast.Blockable {
			h.cast = model.Cast{}
		}
	case rules.AbilityShackle:
		if h := w.hostile(target); h != nil {
			h.incapacitated = true
			h.cast = model.Cast{}
		}
	case rules.AbilityTempest:
		for _, h := range w.hostiles {
			if h.cast.Active && h.cast.Blockable {
				h.cast = model.Cast{}
			}
		}
	case rules.AbilityGrasp:
		if h := w.hostile(target); h != nil {
			h.distance = 2
			h.cast = model.Cast{}
		}
	case rules.AbilityIronhide:
		w.statuses[rules.StatusIronhide] = &model.Status{Remaining: statusDuration, Stacks: 1}
	case rules.AbilityStoneform:
		w.statuses[rules.StatusStoneform] = &model.Status{Remaining: statusDuration, Stacks: 1}
	case rules.AbilityCarapace:
		w.statuses[rules.StatusCarapace] = &model.Status{Remaining: statusDuration, Stacks: 1}
	case rules.AbilityFrenzy, rules.AbilityScourge:
		w.damageHostile(target, 400)
	}
}

func (w *World) hostile(id int) *hostileState {
	for _, h := range w.hostiles {
		if h.id == id {
			return h
		}
	}
	return nil
}

func (w *World) damageHostile(id int, amount float64) {
	if h := w.hostile(id); h != nil {
		h.health -= amount
	}
}

// --- bridge queries ---

func (w *World) Now() time.Time { return w.now }
func (w *World) Tick() int      { return w.tick }

func (w *World) AgentValid() bool   { return w.health > 0 }
func (w *World) HealthPct() float64 { return w.health / w.maxHealth }
func (w *World) PredictedHealthPct(horizon time.Duration) float64 {
	predicted := w.health - w.incoming*horizon.Seconds()*w.mitigationFactor()
	if predicted < 0 {
		predicted = 0
	}
	return predicted / w.maxHealth
}
func (w *World) IsCasting() bool { return w.casting }

func (w *World) SlotCapacity() int   { return w.slotCapacity }
func (w *World) SlotsAvailable() int { return w.slotCapacity - len(w.recharge) }
func (w *World) SlotRecharge() []time.Duration {
	out := make([]time.Duration, len(w.recharge))
	copy(out, w.recharge)
	return out
}
func (w *World) PowerAmount() float64 { return w.power }
func (w *World) PowerMax() float64    { return w.powerMax }

func (w *World) StatusActive(id string) bool {
	_, ok := w.statuses[id]
	return ok
}
func (w *World) StatusRemaining(id string) time.Duration {
	if s, ok := w.statuses[id]; ok {
		return s.Remaining
	}
	return 0
}
func (w *World) StatusStacks(id string) int {
	if s, ok := w.statuses[id]; ok {
		return s.Stacks
	}
	return 0
}

func (w *World) IsLearned(ability string) bool {
	a, ok := w.abilities[ability]
	return ok && a.learned
}
func (w *World) IsAvailable(ability string) bool {
	a, ok := w.abilities[ability]
	if !ok || !a.learned {
		return false
	}
	if a.maxCharges > 1 {
		return a.charges > 0
	}
	return a.cooldownAt == 0
}
func (w *World) Charges(ability string) int {
	if a, ok := w.abilities[ability]; ok {
		return a.charges
	}
	return 0
}
func (w *World) CooldownRemaining(ability string) time.Duration {
	if a, ok := w.abilities[ability]; ok {
		return a.cooldownAt
	}
	return 0
}

func (w *World) Target() model.TargetInfo {
	boss := w.hostile(1)
	if boss == nil || boss.health <= 0 {
		return model.TargetInfo{}
	}
	ttd := time.Duration(boss.health/50) * time.Second // rough dps estimate
	return model.TargetInfo{
		Present:    true,
		ID:         boss.id,
		Attackable: boss.attackable,
		Distance:   boss.distance,
		TimeToDie:  ttd,
	}
}

func (w *World) NearbyHostiles(radius float64) []model.Hostile {
	out := make([]model.Hostile, 0, len(w.hostiles))
	for _, h := range w.hostiles {
		if h.health <= 0 || h.distance > radius {
			continue
		}
		out = append(out, model.Hostile{
			ID:            h.id,
			Distance:      h.distance,
			Attackable:    h.attackable,
			Incapacitated: h.incapacitated,
			Cast:          h.cast,
		})
	}
	return out
}
