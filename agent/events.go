package agent

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/nholden/rotor/model"
)

// EventKind identifies the category of a state transition detected by
// diffing consecutive tick snapshots.
type EventKind string

const (
	EventBufferRefreshed   EventKind = "buffer_refreshed"
	EventBufferLapsed      EventKind = "buffer_lapsed"
	EventHealthCritical    EventKind = "health_critical"
	EventHostileCastStart  EventKind = "hostile_cast_started"
	EventCapabilityChanged EventKind = "capability_changed"
	EventSpendBlockChanged EventKind = "spend_block_changed"
)

// Event is one detected transition. Polling-with-diff is the single source
// of truth; subscriptions are purely notifications of the same diff, so the
// two paths cannot diverge.
type Event struct {
	Kind   EventKind
	Tick   int
	Detail string
}

// Dispatcher diffs each snapshot against the previous one and fans the
// resulting events out to subscribers.
type Dispatcher struct {
	criticalPct float64

	mu   sync.Mutex
	prev *model.Snapshot
	subs map[uuid.UUID]func(Event)
}

func NewDispatcher(criticalPct float64) *Dispatcher {
	return &Dispatcher{
		criticalPct: criticalPct,
		subs:        make(map[uuid.UUID]func(Event)),
	}
}

// Subscribe registers a notification callback and returns its token.
// Callbacks run synchronously during Observe, on the tick goroutine.
func (d *Dispatcher) Subscribe(fn func(Event)) uuid.UUID {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := uuid.New()
	d.subs[id] = fn
	return id
}

func (d *Dispatcher) Unsubscribe(id uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.subs, id)
}

// Observe diffs the snapshot against the previous tick, stores it, notifies
// subscribers, and returns the events. The first tick returns nil.
func (d *Dispatcher) Observe(snap model.Snapshot) []Event {
	d.mu.Lock()
	prev := d.prev
	d.prev = &snap
	subs := make([]func(Event), 0, len(d.subs))
	for _, fn := range d.subs {
		subs = append(subs, fn)
	}
	d.mu.Unlock()

	events := detectEvents(prev, snap, d.criticalPct)
	for _, ev := range events {
		for _, fn := range subs {
			fn(ev)
		}
	}
	return events
}

// Emit notifies subscribers of a transition in state derived outside the
// snapshot, such as the spend block. The orchestrator owns the diffing.
func (d *Dispatcher) Emit(ev Event) {
	d.mu.Lock()
	subs := make([]func(Event), 0, len(d.subs))
	for _, fn := range d.subs {
		subs = append(subs, fn)
	}
	d.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// detectEvents compares consecutive snapshots. Returns nil when prev is nil.
func detectEvents(prev *model.Snapshot, cur model.Snapshot, criticalPct float64) []Event {
	if prev == nil {
		return nil
	}

	var events []Event

	// Buffer refreshed: stacks grew or the timer jumped up (a same-tick
	// decay can only shrink it), or the buffer just appeared.
	switch {
	case !prev.Buffer.Present && cur.Buffer.Present:
		events = append(events, Event{
			Kind:   EventBufferRefreshed,
			Tick:   cur.Tick,
			Detail: fmt.Sprintf("buffer established at %d stacks", cur.Buffer.Stacks),
		})
	case prev.Buffer.Present && cur.Buffer.Present &&
		(cur.Buffer.Stacks > prev.Buffer.Stacks || cur.Buffer.Remaining > prev.Buffer.Remaining):
		events = append(events, Event{
			Kind:   EventBufferRefreshed,
			Tick:   cur.Tick,
			Detail: fmt.Sprintf("buffer refreshed: %d -> %d stacks", prev.Buffer.Stacks, cur.Buffer.Stacks),
		})
	case prev.Buffer.Present && (!cur.Buffer.Present || (cur.Buffer.Stacks == 0 && prev.Buffer.Stacks > 0)):
		events = append(events, Event{
			Kind:   EventBufferLapsed,
			Tick:   cur.Tick,
			Detail: fmt.Sprintf("buffer lapsed from %d stacks", prev.Buffer.Stacks),
		})
	}

	// Health crossed below the critical threshold.
	if prev.Agent.Valid && cur.Agent.Valid &&
		prev.Agent.HealthPct > criticalPct && cur.Agent.HealthPct <= criticalPct {
		events = append(events, Event{
			Kind:   EventHealthCritical,
			Tick:   cur.Tick,
			Detail: fmt.Sprintf("health %.0f%% crossed below %.0f%%", cur.Agent.HealthPct*100, criticalPct*100),
		})
	}

	// Hostile activity started since last tick.
	prevCasting := make(map[int]bool, len(prev.Hostiles))
	for _, h := range prev.Hostiles {
		prevCasting[h.ID] = h.Cast.Active
	}
	for _, h := range cur.Hostiles {
		if h.Cast.Active && !prevCasting[h.ID] {
			events = append(events, Event{
				Kind:   EventHostileCastStart,
				Tick:   cur.Tick,
				Detail: fmt.Sprintf("hostile %d began an activity (%.1fs remaining)", h.ID, h.Cast.Remaining.Seconds()),
			})
		}
	}

	// Capability signature learned or lost.
	for _, p := range probes {
		if prev.Abilities[p.signature].Learned != cur.Abilities[p.signature].Learned {
			events = append(events, Event{
				Kind:   EventCapabilityChanged,
				Tick:   cur.Tick,
				Detail: fmt.Sprintf("signature %s learned=%v", p.signature, cur.Abilities[p.signature].Learned),
			})
		}
	}

	return events
}
