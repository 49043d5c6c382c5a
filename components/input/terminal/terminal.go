// Package terminal reads arrow keys from the controlling terminal.
package terminal

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
	"golang.org/x/term"

	"github.com/crazybot-rc/crazybot/components/input"
	"github.com/crazybot-rc/crazybot/logging"
)

// ErrQuit is returned by Run when the user pressed q, Ctrl-C or Ctrl-D.
var ErrQuit = errors.New("quit requested from terminal")

// Source reads key presses from a terminal, or from any reader in tests.
type Source struct {
	r      io.Reader
	fd     int
	state  *term.State
	logger logging.Logger
}

// Open puts stdin into raw mode when it is a terminal and returns a source reading from it.
func Open(logger logging.Logger) (*Source, error) {
	fd := int(os.Stdin.Fd())
	s := &Source{r: os.Stdin, fd: fd, logger: logger}
	if !term.IsTerminal(fd) {
		logger.Warn("stdin is not a terminal, reading keys without raw mode")
		return s, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, errors.Wrap(err, "putting terminal into raw mode")
	}
	s.state = state
	return s, nil
}

// NewSource reads keys from r.
func NewSource(r io.Reader, logger logging.Logger) *Source {
	return &Source{r: r, logger: logger}
}

// Run feeds key presses to handle until the reader ends, the user quits or ctx is done. A read
// blocked on the terminal is left behind when ctx is done.
func (s *Source) Run(ctx context.Context, handle input.KeyHandler) error {
	stopped := make(chan struct{})
	defer close(stopped)
	keys := make(chan byte)
	readErr := make(chan error, 1)
	goutils.PanicCapturingGo(func() {
		br := bufio.NewReader(s.r)
		for {
			b, err := br.ReadByte()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case keys <- b:
			case <-stopped:
				return
			}
		}
	})

	var p parser
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return errors.Wrap(err, "reading terminal")
		case b := <-keys:
			code, ok, quit := p.feed(b)
			if quit {
				return ErrQuit
			}
			if ok {
				s.logger.Debugw("key", "code", code)
				handle(code)
			}
		}
	}
}

// Close restores the terminal.
func (s *Source) Close() error {
	if s.state == nil {
		return nil
	}
	state := s.state
	s.state = nil
	return term.Restore(s.fd, state)
}
