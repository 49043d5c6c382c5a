// Package serial provides utilities for opening and writing to serial based devices.
package serial

import (
	"io"
	"time"

	"github.com/pkg/errors"
	ser "go.bug.st/serial"
	"go.uber.org/multierr"
)

// Options to be passed to Open(), closely mirrors ser.Mode.
type Options struct {
	BaudRate    int
	DataBits    int
	StopBits    StopBits
	Parity      Parity
	ReadTimeout time.Duration
}

// Parity describes a serial port parity setting.
type Parity int

const (
	// NoParity disable parity control (default).
	NoParity Parity = iota
	// OddParity enable odd-parity check.
	OddParity
	// EvenParity enable even-parity check.
	EvenParity
	// MarkParity enable mark-parity (always 1) check.
	MarkParity
	// SpaceParity enable space-parity (always 0) check.
	SpaceParity
)

// StopBits describe a serial port stop bits setting.
type StopBits int

const (
	// OneStopBit sets 1 stop bit (default).
	OneStopBit StopBits = iota
	// OnePointFiveStopBits sets 1.5 stop bits.
	OnePointFiveStopBits
	// TwoStopBits sets 2 stop bits.
	TwoStopBits
)

// DefaultBaudRate is the rate the vehicle firmware listens at.
const DefaultBaudRate = 57600

// DefaultOptions returns 8N1 options at the given baud rate with a one second read timeout.
// A non-positive baud rate selects DefaultBaudRate.
func DefaultOptions(baudRate int) Options {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	return Options{
		BaudRate:    baudRate,
		DataBits:    8,
		StopBits:    OneStopBit,
		Parity:      NoParity,
		ReadTimeout: time.Second,
	}
}

// Open attempts to open a serial device on the given path. It's a variable
// in case you need to override it during tests.
var Open = func(devicePath string, options Options) (io.ReadWriteCloser, error) {
	if devicePath == "" {
		return nil, errors.New("no serial device path given")
	}
	mode := &ser.Mode{
		BaudRate: options.BaudRate,
		Parity:   ser.Parity(options.Parity),
		DataBits: options.DataBits,
		StopBits: ser.StopBits(options.StopBits),
	}

	device, err := ser.Open(devicePath, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "opening serial device %q", devicePath)
	}
	if err := applyReadTimeout(device, devicePath, options.ReadTimeout); err != nil {
		return nil, err
	}

	return device, nil
}

type timeoutCloser interface {
	io.Closer
	SetReadTimeout(t time.Duration) error
}

// applyReadTimeout closes device if the timeout cannot be set.
func applyReadTimeout(device timeoutCloser, devicePath string, timeout time.Duration) error {
	if timeout <= 0 {
		return nil
	}
	if err := device.SetReadTimeout(timeout); err != nil {
		return multierr.Combine(errors.Wrapf(err, "setting read timeout on %q", devicePath), device.Close())
	}
	return nil
}
