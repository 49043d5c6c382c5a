package backend

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/crazybot-rc/crazybot/components/input"
	"github.com/crazybot-rc/crazybot/components/movementsensor"
	"github.com/crazybot-rc/crazybot/config"
	"github.com/crazybot-rc/crazybot/control"
	"github.com/crazybot-rc/crazybot/logging"
)

// Orientation drives the vehicle by tilting an orientation sensor: pitching forward from flat
// raises power, rolling steers.
type Orientation struct {
	open   movementsensor.Opener
	link   *link
	logger logging.Logger

	mu      sync.Mutex
	state   State
	sensor  movementsensor.OrientationSensor
	started bool
}

// NewOrientation returns an orientation backend writing to the vehicle on the given serial
// device. Nothing is opened until ProbeAndLoad.
func NewOrientation(
	open movementsensor.Opener,
	vehicle config.Serial,
	maxWriteFailures int,
	logger logging.Logger,
) *Orientation {
	return &Orientation{open: open, link: newLink(vehicle, maxWriteFailures, logger), logger: logger}
}

// Name returns "orientation".
func (o *Orientation) Name() string { return string(KindOrientation) }

// State returns the current state. A ready backend whose vehicle link was dropped is disabled.
func (o *Orientation) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stateLocked()
}

func (o *Orientation) stateLocked() State {
	o.dropDeadSensorLocked()
	if o.state == StateReady && !o.link.ready() {
		o.state = StateDisabled
	}
	return o.state
}

// dropDeadSensorLocked releases a sensor that stopped reading so the next health check reopens it.
func (o *Orientation) dropDeadSensorLocked() {
	if o.sensor == nil || o.sensor.Alive() {
		return
	}
	o.logger.Warnw("orientation sensor stopped, reopening on next health check", "error", o.sensor.Err())
	if err := o.sensor.Close(context.Background()); err != nil {
		o.logger.Debugw("error closing orientation sensor", "error", err)
	}
	o.sensor = nil
	if o.state == StateReady {
		o.state = StateDisabled
	}
}

// ProbeAndLoad acquires the sensor and the vehicle link. A channel that is already held is kept
// while the other one is retried.
func (o *Orientation) ProbeAndLoad(ctx context.Context) ProbeResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stateLocked() == StateReady {
		if err := o.sensor.Err(); err != nil {
			o.logger.Warnw("orientation sensor reporting errors", "error", err)
		}
		return ReadyResult()
	}

	o.state = StateProbing
	var errs error
	if o.sensor == nil {
		sensor, err := o.open(ctx, o.logger)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else {
			o.sensor = sensor
		}
	}
	errs = multierr.Append(errs, o.link.open())

	if errs != nil {
		o.state = StateDisabled
		o.logger.Warnw("orientation backend disabled", "reason", errs)
		return DisabledResult(errs)
	}
	o.state = StateReady
	o.logger.Info("orientation backend ready")
	return ReadyResult()
}

// ControlWheel converts the last sensor reading into a wheel. It returns the zero wheel unless
// the backend is started and ready and the sensor has a reading.
func (o *Orientation) ControlWheel() control.Wheel {
	o.mu.Lock()
	if !o.started || o.stateLocked() != StateReady {
		o.mu.Unlock()
		return control.ZeroWheel
	}
	sensor := o.sensor
	o.mu.Unlock()

	reading, ok := sensor.Orientation()
	if !ok {
		return control.ZeroWheel
	}
	return WheelFromOrientation(reading.Roll, reading.Pitch)
}

// pi is a variable so the arithmetic in WheelFromOrientation is evaluated one float64 step at a
// time instead of being folded into exact constants.
var pi = math.Pi

// WheelFromOrientation maps pitch in [-pi/2, 0] to power 0..100 and roll in [-pi/2, pi/2] to turn
// -50..50. Values outside those ranges are clamped; results are truncated toward zero.
func WheelFromOrientation(roll, pitch float64) control.Wheel {
	if math.IsNaN(roll) || math.IsNaN(pitch) {
		return control.ZeroWheel
	}
	pitch = lo.Clamp(pitch, -pi/2, 0)
	roll = lo.Clamp(roll, -pi/2, pi/2)
	power := int((pitch + pi/2) * (200.0 / pi))
	turn := int((roll+pi/2)*(100.0/pi)) - 50
	return control.NewWheel(turn, power)
}

// SendData writes payload to the vehicle while the backend is ready.
func (o *Orientation) SendData(payload []byte, timeout time.Duration) {
	if o.State() != StateReady {
		return
	}
	o.link.send(payload, timeout)
}

// Start enables sensor readings.
func (o *Orientation) Start(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = true
}

// Stop disables readings and closes the sensor and the vehicle link.
func (o *Orientation) Stop(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = false
	var err error
	if o.sensor != nil {
		err = multierr.Combine(err, o.sensor.Close(ctx))
		o.sensor = nil
	}
	err = multierr.Combine(err, o.link.close())
	o.state = StateUninitialized
	return err
}

// HandleKey does nothing; the sensor drives this backend.
func (o *Orientation) HandleKey(code input.KeyCode) {}

// LinkStats returns the vehicle link counters.
func (o *Orientation) LinkStats() LinkStats {
	return o.link.stats()
}
