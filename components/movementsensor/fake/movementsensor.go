// Package fake is a fake orientation sensor for testing.
package fake

import (
	"context"
	"sync"

	"github.com/crazybot-rc/crazybot/components/movementsensor"
	"github.com/crazybot-rc/crazybot/logging"
)

// OrientationSensor reports whatever orientation it was last given.
type OrientationSensor struct {
	mu      sync.Mutex
	roll    *float64
	pitch   *float64
	err     error
	openErr error
	opens   int
	closed  bool
	dead    bool
}

// NewOrientationSensor returns a sensor with no reading.
func NewOrientationSensor() *OrientationSensor {
	return &OrientationSensor{}
}

// Opener returns an opener that hands out s, or fails while an open error is set.
func (s *OrientationSensor) Opener() movementsensor.Opener {
	return func(ctx context.Context, logger logging.Logger) (movementsensor.OrientationSensor, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.opens++
		if s.openErr != nil {
			return nil, s.openErr
		}
		s.closed = false
		s.dead = false
		return s, nil
	}
}

// SetOpenErr makes the opener fail with err. A nil err lets it succeed again.
func (s *OrientationSensor) SetOpenErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openErr = err
}

// Opens returns how many times the opener was called.
func (s *OrientationSensor) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

// Set stores a reading in radians.
func (s *OrientationSensor) Set(roll, pitch float64) {
	s.SetAxes(&roll, &pitch)
}

// SetAxes stores a reading where either axis may be missing.
func (s *OrientationSensor) SetAxes(roll, pitch *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roll, s.pitch = roll, pitch
}

// SetErr sets the error returned by Err.
func (s *OrientationSensor) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Orientation is only available once both axes are set.
func (s *OrientationSensor) Orientation() (movementsensor.Orientation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roll == nil || s.pitch == nil {
		return movementsensor.Orientation{}, false
	}
	return movementsensor.Orientation{Roll: *s.roll, Pitch: *s.pitch}, true
}

// Err returns the error set by SetErr.
func (s *OrientationSensor) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Kill makes the sensor stop for good until it is opened again.
func (s *OrientationSensor) Kill() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dead = true
}

// Alive is false after Kill or Close.
func (s *OrientationSensor) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.dead && !s.closed
}

// Close marks the sensor closed.
func (s *OrientationSensor) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called since the sensor was last opened.
func (s *OrientationSensor) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
