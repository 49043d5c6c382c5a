// Package driver runs the sampling loop: every tick it reads the backend's wheel, mixes it into
// motor values and sends the frame to the vehicle. A periodic health check re-probes the backend.
package driver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/crazybot-rc/crazybot/components/backend"
	"github.com/crazybot-rc/crazybot/components/input"
	"github.com/crazybot-rc/crazybot/config"
	"github.com/crazybot-rc/crazybot/control"
	"github.com/crazybot-rc/crazybot/framing"
	"github.com/crazybot-rc/crazybot/logging"
	"github.com/crazybot-rc/crazybot/utils"
)

// Snapshot is what the last tick computed, for display.
type Snapshot struct {
	Wheel   control.Wheel
	Command control.Command
	Scales  control.Scales
	State   backend.State
	Time    time.Time
	Ticks   uint64
}

// String renders the motor values next to the wheel axes, then the scales.
func (s Snapshot) String() string {
	return fmt.Sprintf("%d %d | %d %d | %d / %d | %s",
		s.Command.Left, s.Wheel.Turn,
		s.Command.Right, s.Wheel.Power,
		s.Scales.Power, s.Scales.Turn,
		s.State)
}

// Driver owns the sampling loop and the health check for one backend.
type Driver struct {
	backend  backend.Backend
	controls Controls
	cfg      config.Drive
	clk      clock.Clock
	logger   logging.Logger

	mu        sync.Mutex
	snapshot  Snapshot
	scheduler gocron.Scheduler
	workers   *utils.StoppableWorkers
}

// New returns a driver. Nothing runs until Start.
func New(b backend.Backend, controls Controls, cfg config.Drive, clk clock.Clock, logger logging.Logger) *Driver {
	if clk == nil {
		clk = clock.New()
	}
	return &Driver{
		backend:  b,
		controls: controls,
		cfg:      cfg,
		clk:      clk,
		logger:   logger,
	}
}

// Start starts the backend, probes it once and begins ticking.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.workers != nil {
		return errors.New("driver already started")
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return errors.Wrap(err, "creating health check scheduler")
	}
	workers := utils.NewStoppableWorkers(context.Background())
	if _, err := scheduler.NewJob(
		gocron.DurationJob(d.cfg.HealthCheckInterval()),
		gocron.NewTask(func() { d.HealthCheck(workers.Context()) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		workers.Stop()
		return multierr.Combine(errors.Wrap(err, "scheduling health check"), scheduler.Shutdown())
	}

	d.backend.Start(ctx)
	d.HealthCheck(ctx)

	d.scheduler = scheduler
	d.workers = workers
	scheduler.Start()
	ticker := d.clk.Ticker(d.cfg.TickInterval())
	workers.AddWorkers(func(ctx context.Context) {
		defer ticker.Stop()
		d.tickLoop(ctx, ticker)
	})
	d.logger.Infow("driver started",
		"backend", d.backend.Name(),
		"tick_interval", d.cfg.TickInterval(),
		"health_check_interval", d.cfg.HealthCheckInterval())
	return nil
}

// HealthCheck probes the backend. Probing a ready backend does nothing.
func (d *Driver) HealthCheck(ctx context.Context) backend.ProbeResult {
	res := d.backend.ProbeAndLoad(ctx)
	d.logger.Debugw("health check", "backend", d.backend.Name(), "result", res.String())
	return res
}

func (d *Driver) tickLoop(ctx context.Context, ticker *clock.Ticker) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Tick()
		}
	}
}

// Tick runs one sample: wheel, mix, frame, send.
func (d *Driver) Tick() Snapshot {
	wheel := d.backend.ControlWheel()
	scales := control.NewScales(d.controls.PowerScale(), d.controls.TurnScale())
	cmd := control.Mix(wheel, scales, d.controls.Reverse())
	d.backend.SendData(framing.EncodeCommand(cmd), d.cfg.SendTimeout())

	d.mu.Lock()
	defer d.mu.Unlock()
	d.snapshot = Snapshot{
		Wheel:   wheel,
		Command: cmd,
		Scales:  scales,
		State:   d.backend.State(),
		Time:    d.clk.Now(),
		Ticks:   d.snapshot.Ticks + 1,
	}
	return d.snapshot
}

// Snapshot returns the result of the last tick.
func (d *Driver) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot
}

// HandleKey forwards a key press to the backend.
func (d *Driver) HandleKey(code input.KeyCode) {
	d.backend.HandleKey(code)
}

// Close stops ticking and the health check, then stops the backend.
func (d *Driver) Close(ctx context.Context) error {
	d.mu.Lock()
	scheduler, workers := d.scheduler, d.workers
	d.scheduler, d.workers = nil, nil
	d.mu.Unlock()

	var err error
	if workers != nil {
		workers.Stop()
	}
	if scheduler != nil {
		err = multierr.Combine(err, errors.Wrap(scheduler.Shutdown(), "stopping health check"))
	}
	if stopErr := d.backend.Stop(ctx); stopErr != nil {
		d.logger.Warnw("error stopping backend", "backend", d.backend.Name(), "error", stopErr)
		err = multierr.Combine(err, stopErr)
	}
	return err
}
