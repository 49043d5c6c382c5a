package backend

import (
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/crazybot-rc/crazybot/config"
	"github.com/crazybot-rc/crazybot/logging"
	"github.com/crazybot-rc/crazybot/serial"
)

// link is the serial connection to the vehicle. It is either closed or holds an open port.
type link struct {
	cfg         config.Serial
	maxFailures int
	logger      logging.Logger

	mu       sync.Mutex
	port     io.ReadWriteCloser
	writer   *serial.TimedWriter
	failures int

	sent    atomic.Uint64
	dropped atomic.Uint64
}

func newLink(cfg config.Serial, maxFailures int, logger logging.Logger) *link {
	if maxFailures < 1 {
		maxFailures = config.DefaultMaxWriteFailures
	}
	return &link{cfg: cfg, maxFailures: maxFailures, logger: logger}
}

func (l *link) ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.port != nil
}

// open opens the port unless it is already open.
func (l *link) open() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.port != nil {
		return nil
	}
	port, err := serial.Open(l.cfg.Path, serial.DefaultOptions(l.cfg.BaudRate))
	if err != nil {
		return errors.Wrap(err, "vehicle link unavailable")
	}
	l.port = port
	l.writer = serial.NewTimedWriter(port)
	l.failures = 0
	l.logger.Infow("vehicle link open", "path", l.cfg.Path, "baud_rate", l.cfg.BaudRate)
	return nil
}

// send writes payload, waiting at most timeout. A non-positive timeout uses the configured write
// timeout. Failures are logged and counted; enough consecutive failures close the port.
func (l *link) send(payload []byte, timeout time.Duration) {
	l.mu.Lock()
	writer := l.writer
	l.mu.Unlock()
	if writer == nil {
		return
	}
	if timeout <= 0 {
		timeout = l.cfg.WriteTimeout()
	}

	err := writer.Write(payload, timeout)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writer != writer {
		// closed while writing
		return
	}
	if err == nil {
		l.failures = 0
		l.sent.Inc()
		return
	}
	l.dropped.Inc()
	l.failures++
	l.logger.Warnw("vehicle write failed", "error", err, "consecutive_failures", l.failures)
	if l.failures >= l.maxFailures {
		l.logger.Errorw("closing vehicle link after repeated write failures", "failures", l.failures)
		if err := l.closeLocked(); err != nil {
			l.logger.Warnw("error closing vehicle link", "error", err)
		}
	}
}

func (l *link) close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeLocked()
}

func (l *link) closeLocked() error {
	if l.port == nil {
		return nil
	}
	err := l.port.Close()
	l.port = nil
	l.writer = nil
	l.failures = 0
	return errors.Wrap(err, "closing vehicle link")
}

// LinkStats counts frames written to the vehicle and frames lost to write failures.
type LinkStats struct {
	Sent    uint64
	Dropped uint64
}

func (l *link) stats() LinkStats {
	return LinkStats{Sent: l.sent.Load(), Dropped: l.dropped.Load()}
}
