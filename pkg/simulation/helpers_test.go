package simulation

import (
	"time"

	"github.com/sherine-k/roundabout/pkg/config"
	"github.com/sherine-k/roundabout/pkg/ring"
)

const nominal = 0.01

// fixedRandom always picks the same vehicle.
type fixedRandom int

func (f fixedRandom) IntN(n int) int { return int(f) % n }

// testRing uses a unit radius so that lengths and angles are the same numbers.
func testRing(safetyGap, spacing float64) ring.Ring {
	return ring.Ring{Radius: 1, SafetyGap: safetyGap, InitialSpacing: spacing}
}

// threeTickStops yields stops of exactly 3 ticks.
func threeTickStops(vehicles int) config.Simulation {
	return config.Simulation{
		VehicleCount: vehicles,
		StopDuration: 300 * time.Millisecond,
		TickRate:     10,
	}
}

func speeds(vs *VehicleSet) []float64 {
	out := make([]float64, vs.Len())
	for i := range out {
		out[i] = vs.Speed(i)
	}
	return out
}

func positions(vs *VehicleSet) []float64 {
	out := make([]float64, vs.Len())
	for i := range out {
		out[i] = vs.Position(i)
	}
	return out
}
