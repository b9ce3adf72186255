//nolint:funlen // ok for tests
package simulation

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sherine-k/roundabout/log"
	"github.com/sherine-k/roundabout/pkg/config"
	"github.com/sherine-k/roundabout/pkg/ring"
)

func newTestSimulator(t *testing.T, cfg config.Simulation, opts ...Option) *Simulator {
	t.Helper()
	opts = append([]Option{WithLogger(log.Nop()), WithNominalSpeed(nominal)}, opts...)
	sim, err := NewSimulator(cfg, opts...)
	require.NoError(t, err)
	return sim
}

func TestSimulator_FreeFlowTick(t *testing.T) {
	sim := newTestSimulator(t, threeTickStops(3), WithRing(testRing(0.2, 0.5)))
	sim.Start()
	require.NoError(t, sim.Tick())

	want := []Vehicle{
		{Index: 0, Position: 0.01, Speed: nominal},
		{Index: 1, Position: 0.51, Speed: nominal},
		{Index: 2, Position: 1.01, Speed: nominal},
	}
	got := sim.Snapshot().Vehicles
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Snapshot().Vehicles mismatch (-want +got):\n%s", diff)
	}
}

func TestSimulator_StopCompletes(t *testing.T) {
	cfg := threeTickStops(3)
	sim := newTestSimulator(t, cfg, WithRing(testRing(0.2, 0.5)), WithRandomSource(fixedRandom(1)))
	sim.Start()

	ev, err := sim.InjectEmergencyStop()
	require.NoError(t, err)
	assert.Equal(t, 1, ev.Vehicle)
	assert.Equal(t, 3, ev.Duration)
	assert.Equal(t, 1, sim.Snapshot().Frozen)

	for range 2 {
		require.NoError(t, sim.Tick())
		assert.Equal(t, StopActive, sim.StopState())
		assert.Equal(t, 0.0, sim.Snapshot().Vehicles[1].Speed)
	}
	assert.True(t, sim.ledger.Empty())

	require.NoError(t, sim.Tick())
	assert.Equal(t, StopIdle, sim.StopState())
	assert.Equal(t, NoVehicle, sim.Snapshot().Frozen)
	assert.Equal(t, []StopRecord{{Vehicle: 1, Count: 1, TotalDuration: cfg.StopDuration}}, sim.Stats())
	for _, v := range sim.Snapshot().Vehicles {
		assert.Equal(t, nominal, v.Speed, "vehicle %d", v.Index)
	}

	events := sim.GetEvents()
	require.Len(t, events, 2)
	assert.Equal(t, EventTypeStopStarted, events[0].Type)
	assert.Equal(t, uint64(0), events[0].Tick)
	assert.Equal(t, EventTypeStopCompleted, events[1].Type)
	assert.Equal(t, uint64(3), events[1].Tick)
	assert.Equal(t, 300*time.Millisecond, events[1].Elapsed)
}

func TestSimulator_VehicleBehindFrozenStops(t *testing.T) {
	r := testRing(0.2, ring.FullTurn-0.1)
	sim := newTestSimulator(t, threeTickStops(2), WithRing(r), WithRandomSource(fixedRandom(0)))
	sim.Start()

	snap := sim.Snapshot()
	assert.InDelta(t, 0.1, ring.ForwardGap(snap.Vehicles[1].Position, snap.Vehicles[0].Position), 1e-9)

	_, err := sim.InjectEmergencyStop()
	require.NoError(t, err)
	require.NoError(t, sim.Tick())

	snap = sim.Snapshot()
	assert.Equal(t, 0.0, snap.Vehicles[0].Speed)
	assert.Equal(t, 0.0, snap.Vehicles[1].Speed)
	assert.Equal(t, 2, snap.StoppedCount())
}

func TestSimulator_Rejections(t *testing.T) {
	sim := newTestSimulator(t, threeTickStops(3), WithRandomSource(fixedRandom(0)))

	_, err := sim.InjectEmergencyStop()
	require.ErrorIs(t, err, ErrNotRunning)
	assert.True(t, IsRejection(err))
	require.ErrorIs(t, sim.Tick(), ErrNotRunning)
	assert.Equal(t, uint64(0), sim.Ticks())

	sim.Start()
	_, err = sim.InjectEmergencyStop()
	require.NoError(t, err)
	before, _ := sim.ActiveStop()
	require.NoError(t, sim.Tick())

	_, err = sim.InjectEmergencyStop()
	require.ErrorIs(t, err, ErrStopActive)
	after, _ := sim.ActiveStop()
	assert.Equal(t, before.Vehicle, after.Vehicle)
	assert.Equal(t, 1, after.Elapsed)

	err = sim.Reconfigure(threeTickStops(5))
	require.ErrorIs(t, err, ErrRunning)
	assert.Len(t, sim.Snapshot().Vehicles, 3)

	sim.Stop()
	err = sim.Reconfigure(config.Simulation{VehicleCount: 25, StopDuration: time.Second, TickRate: 60})
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Len(t, sim.Snapshot().Vehicles, 3)
	assert.Equal(t, StopActive, sim.StopState())

	assert.Len(t, sim.GetWarnings(), 4)
}

func TestSimulator_StoppedClockFreezesState(t *testing.T) {
	sim := newTestSimulator(t, threeTickStops(3))
	sim.Start()
	require.NoError(t, sim.Tick())
	sim.Stop()

	before := sim.Snapshot()
	require.Error(t, sim.Tick())
	after := sim.Snapshot()
	assert.Equal(t, before.Vehicles, after.Vehicles)
	assert.Equal(t, before.Tick, after.Tick)
	assert.False(t, after.Running)
}

func TestSimulator_Reconfigure(t *testing.T) {
	sim := newTestSimulator(t, threeTickStops(3), WithRing(testRing(0.2, 0.5)), WithRandomSource(fixedRandom(0)))
	sim.Start()
	_, err := sim.InjectEmergencyStop()
	require.NoError(t, err)
	for range 5 {
		require.NoError(t, sim.Tick())
	}
	require.Len(t, sim.Stats(), 1)
	_, err = sim.InjectEmergencyStop()
	require.NoError(t, err)
	sim.Stop()

	next := config.Simulation{VehicleCount: 5, StopDuration: 2 * time.Second, TickRate: 60}
	require.NoError(t, sim.Reconfigure(next))

	snap := sim.Snapshot()
	require.Len(t, snap.Vehicles, 5)
	for i, v := range snap.Vehicles {
		assert.InDelta(t, float64(i)*0.5, v.Position, 1e-12)
		assert.Equal(t, nominal, v.Speed)
	}
	assert.Empty(t, sim.Stats())
	assert.Equal(t, NoVehicle, snap.Frozen)
	assert.Equal(t, next, sim.Config())

	sim.Start()
	ev, err := sim.InjectEmergencyStop()
	require.NoError(t, err)
	assert.Equal(t, 120, ev.Duration)
}

func TestSimulator_Gaps(t *testing.T) {
	sim := newTestSimulator(t, threeTickStops(3))
	gaps := sim.Snapshot().Gaps()
	require.Len(t, gaps, 3)
	assert.InDelta(t, ring.DefaultInitialSpacing, gaps[0], 1e-9)
	assert.InDelta(t, ring.DefaultInitialSpacing, gaps[1], 1e-9)
	circumference := ring.FullTurn * ring.DefaultRadius
	assert.InDelta(t, circumference-2*ring.DefaultInitialSpacing, gaps[2], 1e-9)
}

func TestSimulator_SingleVehicle(t *testing.T) {
	sim := newTestSimulator(t, threeTickStops(1), WithRandomSource(NewRandomSource(7)))
	sim.Start()
	_, err := sim.InjectEmergencyStop()
	require.NoError(t, err)
	for range 4 {
		require.NoError(t, sim.Tick())
	}
	assert.Equal(t, 1, sim.Record(0).Count)
	assert.Equal(t, []float64{0}, sim.Snapshot().Gaps())
}

func TestSimulator_LogsStopLifecycle(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sim := newTestSimulator(t, threeTickStops(2),
		WithLogger(log.FromZap(zap.New(core))), WithRandomSource(fixedRandom(1)))
	sim.Start()
	_, err := sim.InjectEmergencyStop()
	require.NoError(t, err)
	for range 3 {
		require.NoError(t, sim.Tick())
	}

	assert.Equal(t, 1, logs.FilterMessage("emergency stop injected").Len())
	completed := logs.FilterMessage("emergency stop completed").All()
	require.Len(t, completed, 1)
	assert.Equal(t, int64(1), completed[0].ContextMap()["vehicle"])
	assert.Equal(t, sim.RunID().String(), completed[0].ContextMap()["run"])
}

func TestSimulator_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	sim := newTestSimulator(t, threeTickStops(2),
		WithMeter(provider.Meter("test")), WithRandomSource(fixedRandom(0)))

	_, err := sim.InjectEmergencyStop()
	require.ErrorIs(t, err, ErrNotRunning)
	sim.Start()
	_, err = sim.InjectEmergencyStop()
	require.NoError(t, err)
	for range 4 {
		require.NoError(t, sim.Tick())
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(4), sums["roundabout.ticks"])
	assert.Equal(t, int64(1), sums["roundabout.stops.started"])
	assert.Equal(t, int64(1), sums["roundabout.stops.completed"])
	assert.Equal(t, int64(1), sums["roundabout.requests.rejected"])
}
