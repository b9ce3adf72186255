package simulation

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrStopActive rejects a stop request while another stop is in progress.
	ErrStopActive = errors.New("an emergency stop is already active")
	// ErrNotRunning rejects requests that need a running clock.
	ErrNotRunning = errors.New("simulation is not running")
	// ErrRunning rejects requests that need a stopped clock.
	ErrRunning = errors.New("simulation is running")
)

// StopEvent is the single emergency stop in progress.
type StopEvent struct {
	Vehicle  int
	Elapsed  int // ticks
	Duration int // ticks
}

// StopState is the state of the StopController.
type StopState int

const (
	StopIdle StopState = iota
	StopActive
)

func (s StopState) String() string {
	if s == StopActive {
		return "active"
	}
	return "idle"
}

// StopController runs the lifecycle of emergency stops: at most one is
// active at any time, and completing it books the configured duration in
// the ledger.
type StopController struct {
	random     RandomSource
	ticks      int
	configured time.Duration
	nominal    float64

	active *StopEvent
}

func NewStopController(random RandomSource, ticks int, configured time.Duration, nominal float64) *StopController {
	return &StopController{
		random:     random,
		ticks:      ticks,
		configured: configured,
		nominal:    nominal,
	}
}

// Reset clears the active stop and applies a new stop duration.
func (c *StopController) Reset(ticks int, configured time.Duration) {
	c.ticks = ticks
	c.configured = configured
	c.active = nil
}

func (c *StopController) State() StopState {
	if c.active != nil {
		return StopActive
	}
	return StopIdle
}

// Active returns the stop in progress, if any.
func (c *StopController) Active() (StopEvent, bool) {
	if c.active == nil {
		return StopEvent{}, false
	}
	return *c.active, true
}

// Frozen returns the vehicle held by the active stop or NoVehicle.
func (c *StopController) Frozen() int {
	if c.active == nil {
		return NoVehicle
	}
	return c.active.Vehicle
}

// Inject picks a random vehicle and stops it.
func (c *StopController) Inject(vs *VehicleSet) (StopEvent, error) {
	if c.active != nil {
		return StopEvent{}, fmt.Errorf("%w: vehicle %d", ErrStopActive, c.active.Vehicle+1)
	}

	target := c.random.IntN(vs.Len())
	c.active = &StopEvent{Vehicle: target, Duration: c.ticks}
	vs.SetSpeed(target, 0)
	return *c.active, nil
}

// Tick advances the active stop by one tick. When it reaches its duration
// the stop is booked in ledger, every vehicle is set back to nominal speed
// and the finished event is returned.
func (c *StopController) Tick(vs *VehicleSet, ledger *StatsLedger) (StopEvent, bool) {
	if c.active == nil {
		return StopEvent{}, false
	}

	c.active.Elapsed++
	if c.active.Elapsed < c.active.Duration {
		return StopEvent{}, false
	}

	done := *c.active
	ledger.Add(done.Vehicle, c.configured)
	c.active = nil
	// releases the whole ring at once, including vehicles queued behind the
	// stopped one
	vs.SetAll(c.nominal)
	return done, true
}
