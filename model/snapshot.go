package model

import "time"

// Snapshot is the immutable per-tick view of the world. The orchestrator
// captures it once at tick start; everything downstream reads only this.
// Pools and buffers are owned by the host; these are read-only mirrors.
type Snapshot struct {
	Tick  int       `json:"tick"`
	Now   time.Time `json:"now"` // monotonic; host clock at capture
	Agent Agent     `json:"agent"`

	Slots  SlotState   `json:"slots"`
	Power  PowerState  `json:"power"`
	Buffer BufferState `json:"buffer"`

	Target   TargetInfo         `json:"target"`
	Hostiles []Hostile          `json:"hostiles"`
	Statuses map[string]Status  `json:"statuses"`
	Abilities map[string]Ability `json:"abilities"`
}

// Agent carries the controlled entity's own vitals. Valid is false when the
// host reports the entity as missing; queries then default conservatively.
type Agent struct {
	Valid              bool    `json:"valid"`
	HealthPct          float64 `json:"healthPct"`
	PredictedHealthPct float64 `json:"predictedHealthPct"`
	Casting            bool    `json:"casting"`
}

// SlotState mirrors the discrete slot pool: Capacity slots, each consumed
// slot independently recharging. Recharge holds the remaining recharge time
// of every consumed slot, in no particular order.
type SlotState struct {
	Valid     bool            `json:"valid"`
	Capacity  int             `json:"capacity"`
	Available int             `json:"available"`
	Recharge  []time.Duration `json:"recharge"`
}

// PowerState mirrors the continuous capped resource.
type PowerState struct {
	Amount float64 `json:"amount"`
	Max    float64 `json:"max"`
}

// Deficit is room left below the cap. Never negative.
func (p PowerState) Deficit() float64 {
	d := p.Max - p.Amount
	if d < 0 {
		return 0
	}
	return d
}

// BufferState mirrors the critical protective buffer. Present is false until
// the underlying status effect first appears; the core never creates it.
type BufferState struct {
	Present   bool          `json:"present"`
	Stacks    int           `json:"stacks"`
	Remaining time.Duration `json:"remaining"`
}

// Status is a generic status-effect mirror keyed by status ID.
type Status struct {
	Remaining time.Duration `json:"remaining"`
	Stacks    int           `json:"stacks"`
}

// Ability mirrors a host-owned ability descriptor. The core reads these and
// invokes the cast primitive; it never mutates them.
type Ability struct {
	Learned   bool          `json:"learned"`
	Available bool          `json:"available"` // cooldown/charge/range composite
	Charges   int           `json:"charges"`
	Cooldown  time.Duration `json:"cooldown"`
}

// TargetInfo describes the engaged target, if any.
type TargetInfo struct {
	Present    bool          `json:"present"`
	ID         int           `json:"id"`
	Attackable bool          `json:"attackable"`
	Distance   float64       `json:"distance"`
	TimeToDie  time.Duration `json:"timeToDie"`
}

// Hostile is a nearby hostile actor and its current activity.
type Hostile struct {
	ID            int     `json:"id"`
	Distance      float64 `json:"distance"`
	Attackable    bool    `json:"attackable"`
	Incapacitated bool    `json:"incapacitated"`
	Cast          Cast    `json:"cast"`
}

// Cast is a hostile's in-progress activity. Blockable means a direct
// interrupt works; otherwise only incapacitation stops it.
type Cast struct {
	Active    bool          `json:"active"`
	Blockable bool          `json:"blockable"`
	Magical   bool          `json:"magical"`
	Elapsed   time.Duration `json:"elapsed"`
	Remaining time.Duration `json:"remaining"`
}
