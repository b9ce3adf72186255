package simulation

import (
	"github.com/sherine-k/roundabout/pkg/ring"
)

// CollisionPolicy decides the next speed of every vehicle from the vehicles
// directly ahead of it.
//
// Speeds are written in place in ascending index order, so vehicle i sees
// the new speed of every j < i and the previous speed of every j > i. A
// stopped vehicle therefore makes the one behind it brake on the next
// tick, not instantly along the whole queue.
type CollisionPolicy struct {
	safetyGap float64 // radians
	nominal   float64
}

func NewCollisionPolicy(r ring.Ring, nominal float64) CollisionPolicy {
	return CollisionPolicy{safetyGap: r.SafetyGapAngle(), nominal: nominal}
}

// Apply updates the speeds of vs. frozen is the vehicle held by an active
// stop (or NoVehicle) and stopActive tells whether any stop is in progress.
func (p CollisionPolicy) Apply(vs *VehicleSet, frozen int, stopActive bool) {
	for i := range vs.Len() {
		if i == frozen {
			vs.SetSpeed(i, 0)
			continue
		}

		if p.mustStop(vs, i) {
			vs.SetSpeed(i, 0)
		} else if !stopActive {
			vs.SetSpeed(i, p.nominal)
		}
	}
}

// mustStop reports whether a slower vehicle is strictly ahead of i within
// the safety gap.
func (p CollisionPolicy) mustStop(vs *VehicleSet, i int) bool {
	pos := vs.Position(i)
	for j := range vs.Len() {
		if j == i {
			continue
		}
		gap := ring.ForwardGap(pos, vs.Position(j))
		if gap > 0 && gap < p.safetyGap && vs.Speed(j) < p.nominal {
			return true
		}
	}
	return false
}
