//go:build linux

package evdev

import (
	"context"

	"github.com/pkg/errors"
	linuxevdev "github.com/viamrobotics/evdev"

	"github.com/crazybot-rc/crazybot/components/input"
	"github.com/crazybot-rc/crazybot/logging"
)

// Source reads key events from an evdev device such as /dev/input/event0.
type Source struct {
	dev    *linuxevdev.Evdev
	logger logging.Logger
}

// Open opens the device at path.
func Open(path string, logger logging.Logger) (*Source, error) {
	dev, err := linuxevdev.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening input device %q", path)
	}
	logger.Infof("reading keys from %q (%s)", path, dev.Name())
	return &Source{dev: dev, logger: logger}, nil
}

// Run feeds arrow key presses to handle until ctx is done or the device goes away.
func (s *Source) Run(ctx context.Context, handle input.KeyHandler) error {
	for eventIn := range s.dev.Poll(ctx) {
		if _, ok := eventIn.Type.(linuxevdev.KeyType); !ok {
			continue
		}
		code, ok := translate(eventIn.Event.Code, eventIn.Event.Value)
		if !ok {
			continue
		}
		s.logger.Debugw("key", "code", code)
		handle(code)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return errors.New("input device closed")
}

// Close closes the device.
func (s *Source) Close() error {
	return s.dev.Close()
}
