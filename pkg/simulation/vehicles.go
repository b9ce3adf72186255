package simulation

// NoVehicle marks the absence of a vehicle index.
const NoVehicle = -1

// Vehicle is a read-only view of one vehicle.
type Vehicle struct {
	Index    int
	Position float64 // radians, unwrapped
	Speed    float64 // radians per tick
}

// Stopped reports whether the vehicle is standing still.
func (v Vehicle) Stopped() bool {
	return v.Speed == 0
}

// VehicleSet owns the position and speed of every vehicle on the ring.
type VehicleSet struct {
	positions []float64
	speeds    []float64
}

func NewVehicleSet(count int, spacing, nominal float64) *VehicleSet {
	vs := &VehicleSet{}
	vs.Initialize(count, spacing, nominal)
	return vs
}

// Initialize places vehicle i at i*spacing with nominal speed, replacing
// any previous state.
func (vs *VehicleSet) Initialize(count int, spacing, nominal float64) {
	vs.positions = make([]float64, count)
	vs.speeds = make([]float64, count)
	for i := range count {
		vs.positions[i] = float64(i) * spacing
		vs.speeds[i] = nominal
	}
}

// Advance moves every vehicle by its current speed.
func (vs *VehicleSet) Advance() {
	for i, speed := range vs.speeds {
		vs.positions[i] += speed
	}
}

func (vs *VehicleSet) Len() int {
	return len(vs.positions)
}

func (vs *VehicleSet) Position(i int) float64 {
	return vs.positions[i]
}

func (vs *VehicleSet) Speed(i int) float64 {
	return vs.speeds[i]
}

func (vs *VehicleSet) SetSpeed(i int, speed float64) {
	vs.speeds[i] = speed
}

// SetAll assigns the same speed to every vehicle.
func (vs *VehicleSet) SetAll(speed float64) {
	for i := range vs.speeds {
		vs.speeds[i] = speed
	}
}

// StoppedCount returns the number of vehicles with speed 0.
func (vs *VehicleSet) StoppedCount() int {
	n := 0
	for _, s := range vs.speeds {
		if s == 0 {
			n++
		}
	}
	return n
}

// Snapshot copies the current state.
func (vs *VehicleSet) Snapshot() []Vehicle {
	out := make([]Vehicle, len(vs.positions))
	for i := range vs.positions {
		out[i] = Vehicle{Index: i, Position: vs.positions[i], Speed: vs.speeds[i]}
	}
	return out
}
