package bridge

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"github.com/crazybot-rc/crazybot/config"
	"github.com/crazybot-rc/crazybot/logging"
	"github.com/crazybot-rc/crazybot/testutils/inject"
)

type deviceOpener struct {
	mu    sync.Mutex
	err   error
	ports []*inject.Port
}

func (o *deviceOpener) open(ctx context.Context) (io.WriteCloser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		o.ports = append(o.ports, nil)
		return nil, o.err
	}
	port := &inject.Port{}
	o.ports = append(o.ports, port)
	return port, nil
}

func (o *deviceOpener) opened() []*inject.Port {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*inject.Port(nil), o.ports...)
}

type runningServer struct {
	server *Server
	addr   string
	cancel context.CancelFunc
	done   chan error
}

func startServer(t *testing.T, opener *deviceOpener, clk clock.Clock) *runningServer {
	t.Helper()
	logger := logging.NewTestLogger(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	test.That(t, err, test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	server := NewServer(config.Default().Bridge, opener.open, clk, logger)
	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx, ln)
	}()
	return &runningServer{server: server, addr: ln.Addr().String(), cancel: cancel, done: done}
}

func (rs *runningServer) stop(t *testing.T) error {
	t.Helper()
	rs.cancel()
	select {
	case err := <-rs.done:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
		return nil
	}
}

func dial(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	test.That(t, err, test.ShouldBeNil)
	return conn
}

// expectClosed reads from conn until the server closes it.
func expectClosed(t *testing.T, conn net.Conn) {
	t.Helper()
	test.That(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)), test.ShouldBeNil)
	_, err := conn.Read(make([]byte, 1))
	test.That(t, err, test.ShouldNotBeNil)
	var netErr net.Error
	if errors.As(err, &netErr) {
		test.That(t, netErr.Timeout(), test.ShouldBeFalse)
	}
}

func TestServerOneSessionAtATime(t *testing.T) {
	opener := &deviceOpener{}
	rs := startServer(t, opener, clock.NewMock())

	first := dial(t, rs.addr)
	defer first.Close()
	_, err := first.Write([]byte("42,4,119,10,10,1,\n"))
	test.That(t, err, test.ShouldBeNil)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, rs.server.Active(), test.ShouldNotBeNil)
		ports := opener.opened()
		if len(ports) != 1 {
			tb.Errorf("expected one device, got %d", len(ports))
			return
		}
		test.That(tb, ports[0].Writes(), test.ShouldResemble, []string{"42,4,119,10,10,1,\n"})
	})

	second := dial(t, rs.addr)
	defer second.Close()
	expectClosed(t, second)
	test.That(t, rs.server.Rejected(), test.ShouldEqual, 1)
	test.That(t, opener.opened(), test.ShouldHaveLength, 1)

	test.That(t, first.Close(), test.ShouldBeNil)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, rs.server.Active(), test.ShouldBeNil)
	})
	test.That(t, opener.opened()[0].Closes(), test.ShouldEqual, 1)

	// a new client gets a fresh session and a fresh device handle
	third := dial(t, rs.addr)
	defer third.Close()
	_, err = third.Write([]byte("42,4,119,0,0,1,\n"))
	test.That(t, err, test.ShouldBeNil)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		ports := opener.opened()
		if len(ports) != 2 {
			tb.Errorf("expected two devices, got %d", len(ports))
			return
		}
		test.That(tb, ports[1].Writes(), test.ShouldResemble, []string{"42,4,119,0,0,1,\n"})
		active := rs.server.Active()
		if active == nil {
			tb.Error("no active session")
			return
		}
		test.That(tb, active.ID(), test.ShouldEqual, 2)
		test.That(tb, active.Stats(), test.ShouldResemble, Stats{Relayed: 1})
	})

	test.That(t, rs.stop(t), test.ShouldBeNil)
	expectClosed(t, third)
	test.That(t, opener.opened()[1].Closes(), test.ShouldEqual, 1)
	test.That(t, rs.server.Active(), test.ShouldBeNil)
}

func TestServerDeviceUnavailable(t *testing.T) {
	opener := &deviceOpener{err: errors.New("no such device")}
	rs := startServer(t, opener, clock.NewMock())

	conn := dial(t, rs.addr)
	defer conn.Close()
	expectClosed(t, conn)

	// the failed session does not hold the admission
	again := dial(t, rs.addr)
	defer again.Close()
	expectClosed(t, again)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, opener.opened(), test.ShouldHaveLength, 2)
	})
	test.That(t, rs.server.Rejected(), test.ShouldEqual, 0)
	test.That(t, rs.stop(t), test.ShouldBeNil)
}

func TestServerShutdownWithoutSessions(t *testing.T) {
	rs := startServer(t, &deviceOpener{}, nil)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, rs.server.Addr(), test.ShouldNotBeNil)
	})
	test.That(t, rs.server.Addr().String(), test.ShouldEqual, rs.addr)
	test.That(t, rs.stop(t), test.ShouldBeNil)

	_, err := net.DialTimeout("tcp", rs.addr, time.Second)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestListenAndServeBadAddress(t *testing.T) {
	cfg := config.Default().Bridge
	cfg.Address = "127.0.0.1:notaport"
	server := NewServer(cfg, (&deviceOpener{}).open, nil, logging.NewTestLogger(t))
	err := server.ListenAndServe(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "listening on 127.0.0.1:notaport")
}
