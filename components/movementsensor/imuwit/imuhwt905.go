// Package imuwit implements an orientation sensor for the Wit-motion HWT905 IMU.
package imuwit

/*
Sensor Manufacturer:  		Wit-motion
Supported Sensor Models: 	HWT905 (TTL)
The sensor streams 11 byte packets: 0x55, a type byte, 8 data bytes and a checksum.
Only angle packets (type 0x53) are used.
*/

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	goutils "go.viam.com/utils"

	"github.com/crazybot-rc/crazybot/components/movementsensor"
	"github.com/crazybot-rc/crazybot/logging"
	"github.com/crazybot-rc/crazybot/serial"
	"github.com/crazybot-rc/crazybot/utils"
)

// Config describes how to reach the sensor.
type Config struct {
	Port     string
	BaudRate int
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Port == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "port")
	}
	return nil
}

// NewOpener returns an opener that connects to the sensor described by cfg.
func NewOpener(cfg Config) movementsensor.Opener {
	return func(ctx context.Context, logger logging.Logger) (movementsensor.OrientationSensor, error) {
		return Open(ctx, cfg, logger)
	}
}

// Open connects to the serial port in cfg and starts reading packets.
func Open(ctx context.Context, cfg Config, logger logging.Logger) (*Wit, error) {
	if err := cfg.Validate("sensor"); err != nil {
		return nil, err
	}
	options := serial.DefaultOptions(cfg.BaudRate)
	logger.Debugf("initializing wit serial connection with parameters: %+v", options)
	port, err := serial.Open(cfg.Port, options)
	if err != nil {
		return nil, err
	}
	return NewWit(port, logger), nil
}

// Wit is a running HWT905 reader. The last good angle packet is cached.
type Wit struct {
	port   io.ReadCloser
	logger logging.Logger

	mu          sync.Mutex
	orientation movementsensor.Orientation
	hasReading  bool

	err            *movementsensor.LastError
	numBadReadings atomic.Uint32
	alive          atomic.Bool
	workers        *utils.StoppableWorkers
	closeOnce      sync.Once
	closeErr       error
}

// NewWit starts reading packets from port. The port is closed by Close.
func NewWit(port io.ReadCloser, logger logging.Logger) *Wit {
	imu := &Wit{
		port:   port,
		logger: logger,
		err:    movementsensor.NewLastError(1, 1),
	}
	imu.alive.Store(true)
	imu.workers = utils.NewStoppableWorkers(context.Background(), imu.updateLoop)
	return imu
}

func (imu *Wit) updateLoop(ctx context.Context) {
	defer imu.alive.Store(false)
	portReader := bufio.NewReader(imu.port)
	for {
		if ctx.Err() != nil {
			return
		}
		line, err := portReader.ReadString(packetStart)
		if err != nil {
			if errors.Is(err, io.ErrNoProgress) {
				continue
			}
			if ctx.Err() == nil {
				imu.logger.Errorw("wit sensor stopped reading", "error", err)
				imu.err.Set(errors.Wrap(err, "reading from wit sensor"))
			}
			imu.mu.Lock()
			imu.hasReading = false
			imu.mu.Unlock()
			return
		}

		if len(line) != packetLen {
			imu.numBadReadings.Inc()
			continue
		}
		imu.err.Set(imu.parseWIT(line))
	}
}

// Orientation returns the last angle packet.
func (imu *Wit) Orientation() (movementsensor.Orientation, bool) {
	imu.mu.Lock()
	defer imu.mu.Unlock()
	return imu.orientation, imu.hasReading
}

// Err returns the last read or parse error.
func (imu *Wit) Err() error {
	return imu.err.Get()
}

// Alive reports whether the reader is still running.
func (imu *Wit) Alive() bool {
	return imu.alive.Load()
}

// BadReadings returns how many packets were dropped because they were malformed.
func (imu *Wit) BadReadings() uint32 {
	return imu.numBadReadings.Load()
}

// Close stops the reader and closes the port.
func (imu *Wit) Close(ctx context.Context) error {
	imu.closeOnce.Do(func() {
		imu.workers.Cancel()
		imu.closeErr = imu.port.Close()
		imu.workers.Stop()
	})
	return imu.closeErr
}
