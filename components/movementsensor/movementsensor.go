// Package movementsensor defines orientation sensors that drive the vehicle by tilting.
package movementsensor

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/crazybot-rc/crazybot/logging"
)

// ErrNotReady is reported while a sensor has not produced a reading yet.
var ErrNotReady = errors.New("orientation not available")

// Orientation is an attitude reading in radians.
type Orientation struct {
	Roll  float64
	Pitch float64
	Yaw   float64
}

func (o Orientation) String() string {
	return fmt.Sprintf("roll=%.3f pitch=%.3f yaw=%.3f", o.Roll, o.Pitch, o.Yaw)
}

// OrientationSensor caches the last orientation it observed. Orientation must not block.
type OrientationSensor interface {
	// Orientation returns the last reading. ok is false while no reading is available.
	Orientation() (o Orientation, ok bool)
	// Err returns a recent error if the sensor has been failing.
	Err() error
	// Alive is false once the sensor has stopped reading for good and must be reopened.
	Alive() bool
	Close(ctx context.Context) error
}

// An Opener acquires an orientation sensor. It is called again on every probe until it succeeds.
type Opener func(ctx context.Context, logger logging.Logger) (OrientationSensor, error)
