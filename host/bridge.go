package host

import (
	"time"

	"github.com/nholden/rotor/model"
)

// ActionSink is the single outward mutation point: the host primitive that
// performs an ability against the world. A false return means the world
// rejected the attempt (range, line of sight, animation lock); availability
// predicates are necessary but not sufficient.
type ActionSink interface {
	Cast(ability string, target int) bool
}

// Bridge exposes the host's synchronous world queries. Every call must return
// immediately; the core performs exactly one pass of queries per tick to
// build its snapshot and never re-reads within the tick.
type Bridge interface {
	ActionSink

	Now() time.Time
	Tick() int

	AgentValid() bool
	HealthPct() float64
	PredictedHealthPct(horizon time.Duration) float64
	IsCasting() bool

	SlotCapacity() int
	SlotsAvailable() int
	SlotRecharge() []time.Duration
	PowerAmount() float64
	PowerMax() float64

	StatusActive(id string) bool
	StatusRemaining(id string) time.Duration
	StatusStacks(id string) int

	IsLearned(ability string) bool
	IsAvailable(ability string) bool
	Charges(ability string) int
	CooldownRemaining(ability string) time.Duration

	Target() model.TargetInfo
	NearbyHostiles(radius float64) []model.Hostile
}

// Driver registers the no-argument tick callback. The host guarantees
// non-overlapping invocations at frame cadence.
type Driver interface {
	RegisterTickHandler(fn func())
}
