package serial

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

var (
	// ErrWriteTimeout is returned when a device write does not finish within its timeout.
	ErrWriteTimeout = errors.New("serial write timed out")
	// ErrWriteInFlight is returned when an earlier write to the device has not returned yet.
	ErrWriteInFlight = errors.New("previous serial write still in flight")
)

// TimedWriter bounds each write to an underlying device by a timeout. At most one write is in
// flight at a time: a write that times out keeps the device busy until it actually returns.
type TimedWriter struct {
	w    io.Writer
	busy atomic.Bool
}

// NewTimedWriter wraps w.
func NewTimedWriter(w io.Writer) *TimedWriter {
	return &TimedWriter{w: w}
}

// Write writes p, waiting at most timeout for the device. A non-positive timeout waits for the
// write to finish.
func (tw *TimedWriter) Write(p []byte, timeout time.Duration) error {
	if !tw.busy.CompareAndSwap(false, true) {
		return ErrWriteInFlight
	}

	if timeout <= 0 {
		defer tw.busy.Store(false)
		_, err := tw.w.Write(p)
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := tw.w.Write(p)
		tw.busy.Store(false)
		errCh <- err
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-errCh:
		return err
	case <-timer.C:
		return ErrWriteTimeout
	}
}

// Busy reports whether a write is still in flight.
func (tw *TimedWriter) Busy() bool {
	return tw.busy.Load()
}
