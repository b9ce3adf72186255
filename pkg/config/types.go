package config

import (
	"math"
	"time"
)

// Ranges accepted for the reconfigurable simulation values.
const (
	MinVehicleCount = 1
	MaxVehicleCount = 20

	MinStopDuration = 100 * time.Millisecond
	MaxStopDuration = 20 * time.Second

	MinTickRate = 1
	MaxTickRate = 240

	DefaultVehicleCount = 10
	DefaultStopDuration = 3 * time.Second
	DefaultTickRate     = 60
	DefaultDuration     = time.Minute
)

// Config represents the entire scenario file for the roundabout simulator
type Config struct {
	Simulation `yaml:",inline"`

	SimulationDuration time.Duration  `yaml:"simulationDuration" toml:"simulationDuration"`
	Seed               uint64         `yaml:"seed" toml:"seed"`
	SampleEvery        int            `yaml:"sampleEvery" toml:"sampleEvery"`
	EmergencyStops     EmergencyStops `yaml:"emergencyStops" toml:"emergencyStops"`
}

// Simulation holds the values that can be changed while the clock is stopped.
type Simulation struct {
	VehicleCount int           `yaml:"vehicleCount" toml:"vehicleCount"`
	StopDuration time.Duration `yaml:"stopDuration" toml:"stopDuration"`
	TickRate     int           `yaml:"tickRate" toml:"tickRate"`
}

// EmergencyStops describes when stop requests are sent to the simulation.
// CronSchedule is evaluated on the simulated clock, not the wall clock.
type EmergencyStops struct {
	CronSchedule string   `yaml:"cronSchedule,omitempty" toml:"cronSchedule"`
	AtTicks      []uint64 `yaml:"atTicks,omitempty" toml:"atTicks"`
}

// DefaultSimulation returns the values the roundabout starts with.
func DefaultSimulation() Simulation {
	return Simulation{
		VehicleCount: DefaultVehicleCount,
		StopDuration: DefaultStopDuration,
		TickRate:     DefaultTickRate,
	}
}

// Default returns a scenario without any scheduled stops.
func Default() *Config {
	return &Config{
		Simulation:         DefaultSimulation(),
		SimulationDuration: DefaultDuration,
	}
}

// Sampling returns the number of ticks between two recorded time points,
// half a second of simulated time unless SampleEvery is set.
func (c *Config) Sampling() int {
	if c.SampleEvery > 0 {
		return c.SampleEvery
	}
	return max(c.TickRate/2, 1)
}

// StopTicks converts the stop duration into a number of ticks.
func (s Simulation) StopTicks() int {
	ticks := int(math.Round(s.StopDuration.Seconds() * float64(s.TickRate)))
	if ticks < 1 {
		return 1
	}
	return ticks
}

// TickTime returns the simulated time elapsed after the given number of ticks.
func (s Simulation) TickTime(ticks uint64) time.Duration {
	if s.TickRate <= 0 {
		return 0
	}
	return time.Duration(ticks) * time.Second / time.Duration(s.TickRate)
}

// TotalTicks is the number of ticks covered by SimulationDuration.
func (c *Config) TotalTicks() uint64 {
	return uint64(math.Round(c.SimulationDuration.Seconds() * float64(c.TickRate)))
}
