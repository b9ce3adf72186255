// Package scenario drives a simulation the way a display loop would: one
// tick per frame, either as fast as possible or paced at the configured
// tick rate, with emergency stops requested on a schedule.
package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/samber/lo"

	"github.com/sherine-k/roundabout/log"
	"github.com/sherine-k/roundabout/pkg/config"
	"github.com/sherine-k/roundabout/pkg/simulation"
)

// Epoch is the simulated wall time of tick 0. Cron schedules are evaluated
// against Epoch plus the simulated elapsed time.
var Epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// TimePoint represents the state at a specific point in time
type TimePoint struct {
	Tick    uint64
	Elapsed time.Duration
	Stopped int
	Frozen  int
}

type Runner struct {
	sim      *simulation.Simulator
	cfg      *config.Config
	schedule cron.Schedule
	atTicks  map[uint64]struct{}
	epoch    time.Time
	realtime bool
	onFrame  func(simulation.Snapshot)
	logger   *log.Logger

	timePoints []TimePoint
	injected   int
	rejected   int
}

type Option func(r *Runner)

// WithRealtime paces ticks at the configured tick rate instead of running
// them back to back.
func WithRealtime(realtime bool) Option {
	return func(r *Runner) {
		r.realtime = realtime
	}
}

// WithFrameCallback is called after every tick with the new state.
func WithFrameCallback(fn func(simulation.Snapshot)) Option {
	return func(r *Runner) {
		r.onFrame = fn
	}
}

func WithLogger(l *log.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

func WithEpoch(t time.Time) Option {
	return func(r *Runner) {
		r.epoch = t
	}
}

// ParseSchedule parses a cron expression with an optional leading seconds
// field. Descriptors like "@every 10s" are accepted too.
func ParseSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour |
		cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return parser.Parse(expr)
}

func NewRunner(sim *simulation.Simulator, cfg *config.Config, opts ...Option) (*Runner, error) {
	r := &Runner{
		sim:    sim,
		cfg:    cfg,
		epoch:  Epoch,
		logger: log.Default().Named("scenario"),
		atTicks: lo.SliceToMap(cfg.EmergencyStops.AtTicks, func(t uint64) (uint64, struct{}) {
			return t, struct{}{}
		}),
	}
	for _, opt := range opts {
		opt(r)
	}

	if expr := cfg.EmergencyStops.CronSchedule; expr != "" {
		schedule, err := ParseSchedule(expr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse cron schedule %q: %w", expr, err)
		}
		r.schedule = schedule
	}
	return r, nil
}

// Run starts the clock, performs SimulationDuration worth of ticks and
// stops the clock again. When ctx is cancelled the run ends after the last
// completed tick and ctx.Err() is returned.
func (r *Runner) Run(ctx context.Context) error {
	total := r.cfg.TotalTicks()
	start := r.sim.Ticks()
	sampling := uint64(r.cfg.Sampling())

	var next time.Time
	if r.schedule != nil {
		next = r.schedule.Next(r.now())
	}

	var frames <-chan time.Time
	if r.realtime {
		ticker := time.NewTicker(time.Second / time.Duration(r.cfg.TickRate))
		defer ticker.Stop()
		frames = ticker.C
	}

	r.sim.Start()
	defer r.sim.Stop()
	r.logger.Info("scenario started",
		log.Uint64("ticks", total),
		log.Bool("realtime", r.realtime),
		log.String("run", r.sim.RunID().String()))

	r.sample()
	for r.sim.Ticks()-start < total {
		if frames != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-frames:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if _, ok := r.atTicks[r.sim.Ticks()]; ok {
			r.inject("tick")
		}
		if now := r.now(); !next.IsZero() && !now.Before(next) {
			r.inject("cron")
			next = r.schedule.Next(now)
		}

		if err := r.sim.Tick(); err != nil {
			return fmt.Errorf("tick %d: %w", r.sim.Ticks()+1, err)
		}
		if (r.sim.Ticks()-start)%sampling == 0 {
			r.sample()
		}
		if r.onFrame != nil {
			r.onFrame(r.sim.Snapshot())
		}
	}

	r.logger.Info("scenario finished",
		log.Uint64("tick", r.sim.Ticks()),
		log.Int("injected", r.injected),
		log.Int("rejected", r.rejected))
	return nil
}

func (r *Runner) inject(source string) {
	ev, err := r.sim.InjectEmergencyStop()
	if err != nil {
		r.rejected++
		r.logger.Debug("scheduled stop rejected", log.String("source", source), log.ErrorField(err))
		return
	}
	r.injected++
	r.logger.Debug("scheduled stop injected", log.String("source", source), log.Int("vehicle", ev.Vehicle))
}

func (r *Runner) now() time.Time {
	return r.epoch.Add(r.sim.Elapsed())
}

func (r *Runner) sample() {
	snap := r.sim.Snapshot()
	r.timePoints = append(r.timePoints, TimePoint{
		Tick:    snap.Tick,
		Elapsed: snap.Elapsed,
		Stopped: snap.StoppedCount(),
		Frozen:  snap.Frozen,
	})
}

// GetTimePoints returns all sampled time points
func (r *Runner) GetTimePoints() []TimePoint {
	return r.timePoints
}

// Injected returns the number of scheduled stops that were accepted.
func (r *Runner) Injected() int {
	return r.injected
}

// Rejected returns the number of scheduled stops that were rejected.
func (r *Runner) Rejected() int {
	return r.rejected
}
