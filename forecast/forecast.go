// Package forecast projects near-future availability of the discrete slot
// pool. Results are pure functions of a single tick snapshot.
package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/nholden/rotor/model"
)

// HorizonSlots is the forecast horizon K: TimeUntil answers for 1..K slots.
const HorizonSlots = 6

// Unreachable marks a slot count the pool can never reach from this snapshot
// (beyond capacity, or the snapshot was invalid).
const Unreachable = time.Duration(math.MaxInt64)

// Result is the per-tick forecast. Immutable once computed.
type Result struct {
	Current  int
	Capacity int

	// timeTo[n] is the time until at least n slots are simultaneously
	// available; index 0 is always zero.
	timeTo [HorizonSlots + 1]time.Duration
}

// Forecast computes the Result for a slot-pool snapshot. An invalid snapshot
// degrades to "nothing affordable": zero current, every horizon Unreachable.
// It never panics.
func Forecast(s model.SlotState) Result {
	r := Result{}
	for n := 1; n <= HorizonSlots; n++ {
		r.timeTo[n] = Unreachable
	}
	if !s.Valid || s.Capacity <= 0 || s.Available < 0 || s.Available > s.Capacity {
		return r
	}

	r.Current = s.Available
	r.Capacity = s.Capacity

	recharge := make([]time.Duration, len(s.Recharge))
	copy(recharge, s.Recharge)
	sort.Slice(recharge, func(i, j int) bool { return recharge[i] < recharge[j] })

	for n := 1; n <= HorizonSlots; n++ {
		if n > s.Capacity {
			break // stays Unreachable
		}
		if n <= s.Available {
			r.timeTo[n] = 0
			continue
		}
		idx := n - s.Available - 1
		if idx >= len(recharge) {
			// Host reported fewer recharging slots than consumed ones;
			// treat the missing ones as never returning.
			break
		}
		r.timeTo[n] = recharge[idx]
	}
	return r
}

// TimeUntil reports the time until at least n slots are simultaneously
// available: zero exactly when already affordable, positive when affordable
// strictly in the future, Unreachable when the pool cannot reach n.
func (r Result) TimeUntil(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	if n > HorizonSlots {
		return Unreachable
	}
	return r.timeTo[n]
}

// ShouldReserve reports whether discretionary spending must be withheld for a
// future need of n slots arriving within window. False when already
// affordable (avoids false pooling) and false beyond the window (avoids
// indefinite stalling).
func (r Result) ShouldReserve(needed int, window time.Duration) bool {
	if r.Current >= needed {
		return false
	}
	t := r.TimeUntil(needed)
	return t > 0 && t <= window
}

// CanAffordSoon reports whether n slots are affordable now or within
// window+tick. The extra tick of slack covers the lag between this decision
// and the actual spend on a later tick.
func (r Result) CanAffordSoon(needed int, window, tick time.Duration) bool {
	if r.Current >= needed {
		return true
	}
	t := r.TimeUntil(needed)
	return t > 0 && t <= window+tick
}
