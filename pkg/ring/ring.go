// Package ring holds the roundabout geometry and the angular math used to
// decide which vehicle is ahead of which.
package ring

import (
	"fmt"
	"math"
)

// FullTurn is one lap in radians.
const FullTurn = 2 * math.Pi

const (
	MetresPerPixel = 0.03

	DefaultRadius         = 280 * MetresPerPixel // metres
	DefaultSafetyGap      = 3.0                  // metres
	DefaultInitialSpacing = 5.0                  // metres

	// NominalSpeed is the cruising speed in radians per tick.
	NominalSpeed = 0.01
)

// Ring is the immutable geometry of the roadway. All lengths are metres.
type Ring struct {
	Radius         float64
	SafetyGap      float64
	InitialSpacing float64
}

// New validates and returns a Ring.
func New(radius, safetyGap, initialSpacing float64) (Ring, error) {
	if radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return Ring{}, fmt.Errorf("radius must be greater than 0, got %v", radius)
	}
	if safetyGap < 0 || math.IsNaN(safetyGap) {
		return Ring{}, fmt.Errorf("safety gap must not be negative, got %v", safetyGap)
	}
	if initialSpacing < 0 || math.IsNaN(initialSpacing) {
		return Ring{}, fmt.Errorf("initial spacing must not be negative, got %v", initialSpacing)
	}
	return Ring{Radius: radius, SafetyGap: safetyGap, InitialSpacing: initialSpacing}, nil
}

// Default returns the geometry of the standard roundabout.
func Default() Ring {
	return Ring{
		Radius:         DefaultRadius,
		SafetyGap:      DefaultSafetyGap,
		InitialSpacing: DefaultInitialSpacing,
	}
}

// ToAngle converts an arc length into the angle it spans on this ring.
func (r Ring) ToAngle(length float64) float64 {
	return length / r.Radius
}

// ToLength converts an angle into arc length on this ring.
func (r Ring) ToLength(angle float64) float64 {
	return angle * r.Radius
}

func (r Ring) SafetyGapAngle() float64 {
	return r.ToAngle(r.SafetyGap)
}

func (r Ring) SpacingAngle() float64 {
	return r.ToAngle(r.InitialSpacing)
}

// ForwardGap returns the angle travelled from a to b in the direction of
// motion. The result is in [0, FullTurn) and is 0 when a and b coincide.
func ForwardGap(a, b float64) float64 {
	return Normalize(b - a)
}

// Normalize maps any angle into [0, FullTurn).
func Normalize(a float64) float64 {
	d := math.Mod(a, FullTurn)
	if d < 0 {
		d += FullTurn
	}
	// d+FullTurn may round up to FullTurn for tiny negative inputs
	if d >= FullTurn || d == 0 {
		return 0
	}
	return d
}
