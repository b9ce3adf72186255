package simulation

import (
	"time"

	"github.com/sherine-k/roundabout/pkg/ring"
)

// Snapshot is a copy of the simulator state taken between two ticks.
type Snapshot struct {
	Tick     uint64
	Elapsed  time.Duration
	Ring     ring.Ring
	Vehicles []Vehicle
	Frozen   int // NoVehicle when no stop is active
	Running  bool
}

// Gaps returns, for every vehicle i, the arc length in metres to vehicle
// i+1 (wrapping to vehicle 0 after the last one).
func (s Snapshot) Gaps() []float64 {
	n := len(s.Vehicles)
	gaps := make([]float64, n)
	for i := range n {
		next := s.Vehicles[(i+1)%n]
		gaps[i] = s.Ring.ToLength(ring.ForwardGap(s.Vehicles[i].Position, next.Position))
	}
	return gaps
}

// StoppedCount returns the number of vehicles standing still.
func (s Snapshot) StoppedCount() int {
	n := 0
	for _, v := range s.Vehicles {
		if v.Stopped() {
			n++
		}
	}
	return n
}
