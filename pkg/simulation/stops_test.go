package simulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopController_Lifecycle(t *testing.T) {
	vs := NewVehicleSet(4, 0.5, nominal)
	ledger := NewStatsLedger(4)
	c := NewStopController(fixedRandom(2), 3, 2500*time.Millisecond, nominal)

	assert.Equal(t, StopIdle, c.State())
	assert.Equal(t, NoVehicle, c.Frozen())

	ev, err := c.Inject(vs)
	require.NoError(t, err)
	assert.Equal(t, StopEvent{Vehicle: 2, Elapsed: 0, Duration: 3}, ev)
	assert.Equal(t, StopActive, c.State())
	assert.Equal(t, 2, c.Frozen())
	assert.Equal(t, 0.0, vs.Speed(2))

	for i := 1; i < 3; i++ {
		_, done := c.Tick(vs, ledger)
		assert.False(t, done, "tick %d", i)
		active, ok := c.Active()
		require.True(t, ok)
		assert.Equal(t, i, active.Elapsed)
	}

	vs.SetSpeed(0, 0)
	done, ok := c.Tick(vs, ledger)
	require.True(t, ok)
	assert.Equal(t, StopEvent{Vehicle: 2, Elapsed: 3, Duration: 3}, done)
	assert.Equal(t, StopIdle, c.State())
	// every vehicle is released, not only the stopped one
	assert.Equal(t, []float64{nominal, nominal, nominal, nominal}, speeds(vs))

	assert.Equal(t, StopRecord{Vehicle: 2, Count: 1, TotalDuration: 2500 * time.Millisecond}, ledger.Get(2))
}

func TestStopController_RejectsSecondStop(t *testing.T) {
	vs := NewVehicleSet(4, 0.5, nominal)
	c := NewStopController(fixedRandom(1), 10, time.Second, nominal)

	_, err := c.Inject(vs)
	require.NoError(t, err)

	c.random = fixedRandom(3)
	_, err = c.Inject(vs)
	require.ErrorIs(t, err, ErrStopActive)

	active, ok := c.Active()
	require.True(t, ok)
	assert.Equal(t, 1, active.Vehicle)
	assert.Equal(t, nominal, vs.Speed(3))
}

func TestStopController_TickWhileIdle(t *testing.T) {
	vs := NewVehicleSet(2, 0.5, nominal)
	vs.SetSpeed(1, 0)
	ledger := NewStatsLedger(2)
	c := NewStopController(fixedRandom(0), 1, time.Second, nominal)

	_, ok := c.Tick(vs, ledger)
	assert.False(t, ok)
	assert.Equal(t, 0.0, vs.Speed(1))
	assert.True(t, ledger.Empty())
}

func TestStopController_Reset(t *testing.T) {
	vs := NewVehicleSet(2, 0.5, nominal)
	c := NewStopController(fixedRandom(1), 5, time.Second, nominal)
	_, err := c.Inject(vs)
	require.NoError(t, err)

	c.Reset(7, 2*time.Second)
	assert.Equal(t, StopIdle, c.State())

	ev, err := c.Inject(vs)
	require.NoError(t, err)
	assert.Equal(t, 7, ev.Duration)
}
