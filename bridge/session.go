package bridge

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	goutils "go.viam.com/utils"
	"golang.org/x/time/rate"

	"github.com/crazybot-rc/crazybot/config"
	"github.com/crazybot-rc/crazybot/logging"
)

// ErrForcedTeardown is reported when a session's worker does not stop within the grace period and
// the device is closed underneath it.
var ErrForcedTeardown = errors.New("session worker did not stop within the grace period; device closed")

// SessionState is where a session is in its lifetime.
type SessionState int32

// Open -> Relaying -> Draining -> Closed.
const (
	SessionOpen SessionState = iota
	SessionRelaying
	SessionDraining
	SessionClosed
)

func (s SessionState) String() string {
	switch s {
	case SessionOpen:
		return "open"
	case SessionRelaying:
		return "relaying"
	case SessionDraining:
		return "draining"
	case SessionClosed:
		return "closed"
	default:
		return fmt.Sprintf("SessionState(%d)", int32(s))
	}
}

// Stats counts the lines a session relayed to the device and the lines it dropped because the
// queue stayed full.
type Stats struct {
	Relayed uint64
	Dropped uint64
}

// Session relays newline delimited lines from one connection to one device. A reader goroutine
// fills a bounded queue and a single worker drains it into the device, so lines reach the device
// in the order they were received.
type Session struct {
	id     uint64
	conn   net.Conn
	device io.WriteCloser
	cfg    config.Bridge
	clk    clock.Clock
	logger logging.Logger

	queue       chan []byte
	state       atomic.Int32
	relayed     atomic.Uint64
	dropped     atomic.Uint64
	overflowLog rate.Sometimes

	deviceClosed atomic.Bool
}

func newSession(
	id uint64,
	conn net.Conn,
	device io.WriteCloser,
	cfg config.Bridge,
	clk clock.Clock,
	logger logging.Logger,
) *Session {
	return &Session{
		id:          id,
		conn:        conn,
		device:      device,
		cfg:         cfg,
		clk:         clk,
		logger:      logger,
		queue:       make(chan []byte, cfg.QueueSize),
		overflowLog: rate.Sometimes{First: 1, Interval: time.Second},
	}
}

// ID identifies the session in logs.
func (s *Session) ID() uint64 { return s.id }

// State returns the current state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *Session) setState(state SessionState) {
	s.state.Store(int32(state))
}

// Stats returns the relay counters.
func (s *Session) Stats() Stats {
	return Stats{Relayed: s.relayed.Load(), Dropped: s.dropped.Load()}
}

// Run relays until the client disconnects, the worker stops, the session window elapses or ctx is
// done. The connection and the device are closed when it returns. It returns ErrForcedTeardown if
// the worker had to be abandoned, or the worker's device error.
func (s *Session) Run(ctx context.Context) error {
	readerCtx, cancelReader := context.WithCancel(context.Background())
	defer cancelReader()
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	readerDone := make(chan error, 1)
	workerDone := make(chan error, 1)
	watchdog := s.clk.Timer(s.cfg.SessionWindow())
	defer watchdog.Stop()

	s.setState(SessionRelaying)
	s.logger.Infow("session started", "remote", s.conn.RemoteAddr().String())
	goutils.PanicCapturingGo(func() {
		readerDone <- s.read(readerCtx)
	})
	goutils.PanicCapturingGo(func() {
		workerDone <- s.work(workerCtx)
	})

	var (
		reason    string
		workerErr error
		flush     bool
		readerErr error
		readerOut bool
		workerOut bool
	)
	select {
	case <-watchdog.C:
		reason = "session window elapsed"
	case <-ctx.Done():
		reason = "server shutting down"
	case readerErr = <-readerDone:
		readerOut = true
		reason = "client disconnected"
		// the queue is closed; let the worker write what is left
		flush = true
	case workerErr = <-workerDone:
		workerOut = true
		reason = "worker stopped"
	}
	if readerErr != nil {
		s.logger.Debugw("connection read error", "error", readerErr)
	}

	grace := s.clk.Timer(s.cfg.GracePeriod())
	defer grace.Stop()
	s.setState(SessionDraining)
	s.logger.Infow("session draining", "reason", reason)

	if !readerOut {
		cancelReader()
		if err := s.conn.SetReadDeadline(time.Now()); err != nil {
			s.logger.Debugw("could not interrupt connection read", "error", err)
		}
	}
	if !flush {
		stopWorker()
	}

	var runErr error
	if !workerOut {
		select {
		case workerErr = <-workerDone:
		case <-grace.C:
			stopWorker()
			runErr = ErrForcedTeardown
			s.logger.Errorw("forcing session teardown", "error", ErrForcedTeardown, "grace_period", s.cfg.GracePeriod())
			s.closeDevice()
		}
	}
	if !readerOut {
		<-readerDone
	}
	if runErr != nil {
		// discard whatever the abandoned worker left behind
		for range s.queue {
		}
	}

	if err := s.conn.Close(); err != nil {
		s.logger.Debugw("error closing connection", "error", err)
	}
	s.closeDevice()
	s.setState(SessionClosed)

	stats := s.Stats()
	s.logger.Infow("session closed", "relayed", stats.Relayed, "dropped", stats.Dropped)
	if runErr != nil {
		return runErr
	}
	return workerErr
}

func (s *Session) closeDevice() {
	if !s.deviceClosed.CompareAndSwap(false, true) {
		return
	}
	if err := s.device.Close(); err != nil {
		s.logger.Warnw("error closing device", "error", err)
	}
}

// read forwards lines, including a final unterminated one, until the connection ends or ctx is
// cancelled. It owns the queue and closes it on return.
func (s *Session) read(ctx context.Context) error {
	defer close(s.queue)
	reader := bufio.NewReader(s.conn)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 && ctx.Err() == nil {
			s.enqueue(ctx, line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// enqueue waits up to the enqueue timeout for room in the queue, then drops the line.
func (s *Session) enqueue(ctx context.Context, line []byte) {
	select {
	case s.queue <- line:
		return
	default:
	}

	timer := s.clk.Timer(s.cfg.EnqueueTimeout())
	defer timer.Stop()
	select {
	case s.queue <- line:
	case <-timer.C:
		dropped := s.dropped.Inc()
		s.overflowLog.Do(func() {
			s.logger.Warnw("queue full, dropping line", "dropped", dropped, "queue_size", cap(s.queue))
		})
	case <-ctx.Done():
		s.dropped.Inc()
	}
}

// work writes queued lines to the device until ctx is cancelled, the queue is closed and empty,
// a write fails or it polls an empty queue max_idle_polls times in a row.
func (s *Session) work(ctx context.Context) error {
	idlePolls := 0
	for {
		if ctx.Err() != nil {
			return nil
		}
		poll := s.clk.Timer(s.cfg.PollInterval())
		select {
		case <-ctx.Done():
			poll.Stop()
			return nil
		case line, ok := <-s.queue:
			poll.Stop()
			if !ok {
				return nil
			}
			idlePolls = 0
			if _, err := s.device.Write(line); err != nil {
				return errors.Wrap(err, "writing to device")
			}
			s.relayed.Inc()
		case <-poll.C:
			idlePolls++
			if idlePolls >= s.cfg.MaxIdlePolls {
				s.logger.Infow("worker idle, stopping", "polls", idlePolls)
				return nil
			}
		}
	}
}
