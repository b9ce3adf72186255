package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/sherine-k/roundabout/log"
	"github.com/sherine-k/roundabout/pkg/config"
	"github.com/sherine-k/roundabout/pkg/ring"
)

// Simulator owns the whole roundabout state and advances it one tick at a
// time. It is not safe for concurrent use: ticks, stop requests and
// reconfiguration must come from the same goroutine.
type Simulator struct {
	config  config.Simulation
	ring    ring.Ring
	nominal float64

	vehicles *VehicleSet
	policy   CollisionPolicy
	stops    *StopController
	ledger   *StatsLedger

	running bool
	tick    uint64
	events  []Event

	runID   uuid.UUID
	logger  *log.Logger
	meter   metric.Meter
	metrics *metrics
	random  RandomSource
}

type Option func(s *Simulator)

func WithRing(r ring.Ring) Option {
	return func(s *Simulator) {
		s.ring = r
	}
}

func WithNominalSpeed(speed float64) Option {
	return func(s *Simulator) {
		s.nominal = speed
	}
}

func WithRandomSource(r RandomSource) Option {
	return func(s *Simulator) {
		s.random = r
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Simulator) {
		s.logger = l
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Simulator) {
		s.meter = m
	}
}

// NewSimulator creates a stopped simulator with vehicles in their initial
// layout.
func NewSimulator(cfg config.Simulation, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulator{
		config:  cfg,
		ring:    ring.Default(),
		nominal: ring.NominalSpeed,
		runID:   uuid.New(),
		logger:  log.Default().Named("simulation"),
		meter:   noop.NewMeterProvider().Meter(meterName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := ring.New(s.ring.Radius, s.ring.SafetyGap, s.ring.InitialSpacing); err != nil {
		return nil, fmt.Errorf("ring geometry: %w", err)
	}
	if s.random == nil {
		s.random = NewRandomSource(0)
	}
	s.logger = s.logger.With(log.String("run", s.runID.String()))
	s.metrics = newMetrics(s.meter)

	s.vehicles = NewVehicleSet(cfg.VehicleCount, s.ring.SpacingAngle(), s.nominal)
	s.policy = NewCollisionPolicy(s.ring, s.nominal)
	s.stops = NewStopController(s.random, cfg.StopTicks(), cfg.StopDuration, s.nominal)
	s.ledger = NewStatsLedger(cfg.VehicleCount)

	return s, nil
}

func (s *Simulator) RunID() uuid.UUID {
	return s.runID
}

func (s *Simulator) Config() config.Simulation {
	return s.config
}

func (s *Simulator) Ring() ring.Ring {
	return s.ring
}

func (s *Simulator) NominalSpeed() float64 {
	return s.nominal
}

// Start lets ticks happen.
func (s *Simulator) Start() {
	if !s.running {
		s.logger.Info("simulation started", log.Uint64("tick", s.tick))
	}
	s.running = true
}

// Stop halts the clock. State stays exactly as of the last completed tick.
func (s *Simulator) Stop() {
	if s.running {
		s.logger.Info("simulation stopped", log.Uint64("tick", s.tick))
	}
	s.running = false
}

func (s *Simulator) Running() bool {
	return s.running
}

// Tick advances the system by one step: the stop lifecycle first, then the
// collision policy, then position integration.
func (s *Simulator) Tick() error {
	if !s.running {
		return ErrNotRunning
	}

	s.tick++
	if done, ok := s.stops.Tick(s.vehicles, s.ledger); ok {
		s.completed(done)
	}

	_, stopActive := s.stops.Active()
	s.policy.Apply(s.vehicles, s.stops.Frozen(), stopActive)
	s.vehicles.Advance()

	s.metrics.ticks.Add(context.Background(), 1)
	return nil
}

func (s *Simulator) completed(done StopEvent) {
	record := s.ledger.Get(done.Vehicle)
	s.addEvent(Event{
		Type:    EventTypeStopCompleted,
		Vehicle: done.Vehicle,
		Message: fmt.Sprintf("Vehicle %d resumed after %s (stops: %d, total: %s)",
			done.Vehicle+1, s.config.StopDuration, record.Count, record.TotalDuration),
	})
	s.metrics.stopsDone.Add(context.Background(), 1)
	s.metrics.stopDurations.Record(context.Background(), s.config.StopDuration.Seconds())
	s.logger.Info("emergency stop completed",
		log.Int("vehicle", done.Vehicle),
		log.Int("ticks", done.Elapsed),
		log.Int("count", record.Count),
		log.Duration("total", record.TotalDuration))
}

// InjectEmergencyStop stops a random vehicle for the configured duration.
// It is rejected when the clock is not running or a stop is already active.
func (s *Simulator) InjectEmergencyStop() (StopEvent, error) {
	if !s.running {
		s.reject(EventTypeStopRejected, "stop", ErrNotRunning)
		return StopEvent{}, ErrNotRunning
	}

	ev, err := s.stops.Inject(s.vehicles)
	if err != nil {
		s.reject(EventTypeStopRejected, "stop", err)
		return StopEvent{}, err
	}

	s.addEvent(Event{
		Type:    EventTypeStopStarted,
		Vehicle: ev.Vehicle,
		Message: fmt.Sprintf("Emergency stop: vehicle %d (%s)", ev.Vehicle+1, s.config.StopDuration),
	})
	s.metrics.stopsStarted.Add(context.Background(), 1)
	s.logger.Info("emergency stop injected",
		log.Int("vehicle", ev.Vehicle),
		log.Int("durationTicks", ev.Duration))
	return ev, nil
}

// Reconfigure replaces the fleet and clears the stop statistics. It is
// only accepted while the clock is stopped.
func (s *Simulator) Reconfigure(cfg config.Simulation) error {
	if s.running {
		s.reject(EventTypeReconfigureRejected, "reconfigure", ErrRunning)
		return ErrRunning
	}
	if err := cfg.Validate(); err != nil {
		s.reject(EventTypeReconfigureRejected, "reconfigure", err)
		return err
	}

	s.config = cfg
	s.vehicles.Initialize(cfg.VehicleCount, s.ring.SpacingAngle(), s.nominal)
	// a pending stop may point at a vehicle that no longer exists
	s.stops.Reset(cfg.StopTicks(), cfg.StopDuration)
	s.ledger.Reset(cfg.VehicleCount)

	s.addEvent(Event{
		Type:    EventTypeReconfigured,
		Vehicle: NoVehicle,
		Message: fmt.Sprintf("Configuration applied: %d vehicles, %s stops (%d ticks)",
			cfg.VehicleCount, cfg.StopDuration, cfg.StopTicks()),
	})
	s.logger.Info("configuration applied",
		log.Int("vehicles", cfg.VehicleCount),
		log.Duration("stopDuration", cfg.StopDuration),
		log.Int("stopTicks", cfg.StopTicks()))
	return nil
}

func (s *Simulator) reject(t EventType, kind string, err error) {
	s.addEvent(Event{
		Type:      t,
		Vehicle:   NoVehicle,
		Message:   fmt.Sprintf("Request rejected: %v", err),
		IsWarning: true,
	})
	s.metrics.rejected(kind)
	s.logger.Warn("request rejected", log.String("request", kind), log.ErrorField(err))
}

// Ticks returns the number of ticks completed so far.
func (s *Simulator) Ticks() uint64 {
	return s.tick
}

// Elapsed returns the simulated time covered by the completed ticks.
func (s *Simulator) Elapsed() time.Duration {
	return s.config.TickTime(s.tick)
}

func (s *Simulator) StopState() StopState {
	return s.stops.State()
}

func (s *Simulator) ActiveStop() (StopEvent, bool) {
	return s.stops.Active()
}

// Stats returns the stop records ordered by count, most stops first.
func (s *Simulator) Stats() []StopRecord {
	return s.ledger.Records()
}

// Record returns the stop record of one vehicle.
func (s *Simulator) Record(vehicle int) StopRecord {
	return s.ledger.Get(vehicle)
}

// Snapshot returns a copy of everything a renderer needs.
func (s *Simulator) Snapshot() Snapshot {
	return Snapshot{
		Tick:     s.tick,
		Elapsed:  s.Elapsed(),
		Ring:     s.ring,
		Vehicles: s.vehicles.Snapshot(),
		Frozen:   s.stops.Frozen(),
		Running:  s.running,
	}
}

// addEvent adds an event to the event list
func (s *Simulator) addEvent(event Event) {
	event.Tick = s.tick
	event.Elapsed = s.Elapsed()
	event.Stopped = s.vehicles.StoppedCount()
	s.events = append(s.events, event)
}

// GetEvents returns all events
func (s *Simulator) GetEvents() []Event {
	return s.events
}

// GetWarnings returns all warning events
func (s *Simulator) GetWarnings() []Event {
	warnings := []Event{}
	for _, event := range s.events {
		if event.IsWarning {
			warnings = append(warnings, event)
		}
	}
	return warnings
}

// IsRejection reports whether err is one of the non-fatal request rejections.
func IsRejection(err error) bool {
	return errors.Is(err, ErrNotRunning) ||
		errors.Is(err, ErrStopActive) ||
		errors.Is(err, ErrRunning) ||
		errors.Is(err, config.ErrInvalidConfig)
}
