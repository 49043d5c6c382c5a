//go:build !linux

package evdev

import (
	"context"

	"github.com/pkg/errors"

	"github.com/crazybot-rc/crazybot/components/input"
	"github.com/crazybot-rc/crazybot/logging"
)

// Source is unavailable on this platform.
type Source struct{}

// Open always fails off Linux.
func Open(path string, logger logging.Logger) (*Source, error) {
	return nil, errors.New("evdev input is only supported on linux")
}

// Run returns immediately.
func (s *Source) Run(ctx context.Context, handle input.KeyHandler) error {
	return errors.New("evdev input is only supported on linux")
}

// Close does nothing.
func (s *Source) Close() error {
	return nil
}
