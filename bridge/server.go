// Package bridge relays newline delimited lines from one network client at a time to a serial
// device.
package bridge

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	goutils "go.viam.com/utils"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/crazybot-rc/crazybot/config"
	"github.com/crazybot-rc/crazybot/logging"
	"github.com/crazybot-rc/crazybot/serial"
)

// A DeviceOpener opens the device for a new session. Every session gets its own handle, closed
// when the session ends.
type DeviceOpener func(ctx context.Context) (io.WriteCloser, error)

// SerialDevice opens the serial device described by cfg.
func SerialDevice(cfg config.Serial) DeviceOpener {
	return func(ctx context.Context) (io.WriteCloser, error) {
		return serial.Open(cfg.Path, serial.DefaultOptions(cfg.BaudRate))
	}
}

// Server accepts connections and runs at most one session at a time. Connections arriving while a
// session is active are closed immediately.
type Server struct {
	cfg        config.Bridge
	openDevice DeviceOpener
	clk        clock.Clock
	logger     logging.Logger

	admission *semaphore.Weighted
	nextID    atomic.Uint64
	rejected  atomic.Uint64

	mu     sync.Mutex
	active *Session
	addr   net.Addr
}

// NewServer returns a server relaying to devices from openDevice. A nil clk uses the real clock.
func NewServer(cfg config.Bridge, openDevice DeviceOpener, clk clock.Clock, logger logging.Logger) *Server {
	if clk == nil {
		clk = clock.New()
	}
	return &Server{
		cfg:        cfg,
		openDevice: openDevice,
		clk:        clk,
		logger:     logger,
		admission:  semaphore.NewWeighted(1),
	}
}

// ListenAndServe listens on the configured address and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", s.cfg.Address)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done or ln fails. It closes ln and waits for the
// active session to finish before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()
	s.logger.Infow("bridge listening", "address", ln.Addr().String())

	stopListening := make(chan struct{})
	listenerClosed := make(chan struct{})
	goutils.PanicCapturingGo(func() {
		defer close(listenerClosed)
		select {
		case <-ctx.Done():
		case <-stopListening:
		}
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Debugw("error closing listener", "error", err)
		}
	})

	var sessions errgroup.Group
	var acceptErr error
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() == nil {
				acceptErr = errors.Wrap(err, "accepting connection")
			}
			break
		}
		if !s.admission.TryAcquire(1) {
			s.rejected.Inc()
			s.logger.Warnw("rejecting connection, a session is already active", "remote", conn.RemoteAddr().String())
			if err := conn.Close(); err != nil {
				s.logger.Debugw("error closing rejected connection", "error", err)
			}
			continue
		}
		sessions.Go(func() error {
			s.handle(ctx, conn)
			return nil
		})
	}
	close(stopListening)
	<-listenerClosed
	if err := sessions.Wait(); err != nil && acceptErr == nil {
		acceptErr = err
	}
	return acceptErr
}

// handle runs one admitted connection and releases the admission when done.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	id := s.nextID.Inc()
	logger := s.logger.Sublogger(fmt.Sprintf("session%d", id))

	device, err := s.openDevice(ctx)
	if err != nil {
		s.admission.Release(1)
		logger.Errorw("could not open device, closing connection", "error", err)
		if err := conn.Close(); err != nil {
			logger.Debugw("error closing connection", "error", err)
		}
		return
	}

	session := newSession(id, conn, device, s.cfg, s.clk, logger)
	s.setActive(session)
	// released before the session is cleared, so no active session means a new one is admitted
	defer s.setActive(nil)
	defer s.admission.Release(1)

	if err := session.Run(ctx); err != nil {
		if errors.Is(err, ErrForcedTeardown) {
			logger.Errorw("session torn down", "error", err)
		} else {
			logger.Warnw("session ended with error", "error", err)
		}
	}
}

func (s *Server) setActive(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = session
}

// Active returns the running session, or nil.
func (s *Server) Active() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Addr returns the address being served, once Serve has started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Rejected returns how many connections were turned away because a session was active.
func (s *Server) Rejected() uint64 {
	return s.rejected.Load()
}
