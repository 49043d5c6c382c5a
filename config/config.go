// Package config defines the structures to configure the driver and the serial bridge.
package config

import (
	"net"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/crazybot-rc/crazybot/logging"
)

// Config describes how to configure a crazybot process.
type Config struct {
	ConfigFilePath string `json:"-"`

	Backend Backend `json:"backend"`
	Vehicle Serial  `json:"vehicle"`
	Drive   Drive   `json:"drive"`
	Bridge  Bridge  `json:"bridge"`
	Log     Log     `json:"log"`
}

// Default returns a config with every default applied.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

// Ensure applies defaults and ensures all parts of the config are valid.
func (c *Config) Ensure() error {
	c.setDefaults()
	if err := c.Backend.Validate("backend"); err != nil {
		return err
	}
	if err := c.Vehicle.Validate("vehicle"); err != nil {
		return err
	}
	if err := c.Drive.Validate("drive"); err != nil {
		return err
	}
	if err := c.Bridge.Validate("bridge"); err != nil {
		return err
	}
	return c.Log.Validate("log")
}

func (c *Config) setDefaults() {
	c.Backend.setDefaults()
	c.Vehicle.setDefaults(DefaultVehicleBaudRate)
	c.Drive.setDefaults()
	c.Bridge.setDefaults()
	c.Log.setDefaults()
}

// Backend kinds.
const (
	BackendOrientation = "orientation"
	BackendKeyboard    = "keyboard"
	BackendNull        = "null"
)

// Keyboard sources.
const (
	KeySourceTerminal = "terminal"
	KeySourceEvdev    = "evdev"
	KeySourceNone     = "none"
)

// Backend selects and configures the operator input.
type Backend struct {
	Kind     string   `json:"kind"`
	Sensor   Serial   `json:"sensor"`
	Keyboard Keyboard `json:"keyboard"`
}

// Keyboard configures where key presses come from.
type Keyboard struct {
	Source string `json:"source"`
	Device string `json:"device,omitempty"`
}

func (b *Backend) setDefaults() {
	if b.Kind == "" {
		b.Kind = BackendKeyboard
	}
	if b.Keyboard.Source == "" {
		b.Keyboard.Source = KeySourceTerminal
	}
	b.Sensor.setDefaults(DefaultSensorBaudRate)
}

// Validate ensures all parts of the config are valid.
func (b *Backend) Validate(path string) error {
	if b.Kind == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "kind")
	}
	switch b.Keyboard.Source {
	case KeySourceTerminal, KeySourceNone:
	case KeySourceEvdev:
		if b.Keyboard.Device == "" {
			return utils.NewConfigValidationFieldRequiredError(path+".keyboard", "device")
		}
	default:
		return utils.NewConfigValidationError(path+".keyboard",
			errors.Errorf("unknown key source %q", b.Keyboard.Source))
	}
	if b.Kind == BackendOrientation && b.Sensor.Path == "" {
		return utils.NewConfigValidationFieldRequiredError(path+".sensor", "path")
	}
	return b.Sensor.Validate(path + ".sensor")
}

// Default serial settings.
const (
	DefaultVehicleBaudRate = 57600
	DefaultSensorBaudRate  = 9600
	DefaultWriteTimeoutMs  = 1000
)

// Serial configures a serial device. An empty path is allowed: the device is then never acquired
// and whatever uses it stays disabled.
type Serial struct {
	Path           string `json:"path"`
	BaudRate       int    `json:"baud_rate"`
	WriteTimeoutMs int    `json:"write_timeout_ms"`
}

func (s *Serial) setDefaults(baudRate int) {
	if s.BaudRate == 0 {
		s.BaudRate = baudRate
	}
	if s.WriteTimeoutMs == 0 {
		s.WriteTimeoutMs = DefaultWriteTimeoutMs
	}
}

// Validate ensures all parts of the config are valid.
func (s *Serial) Validate(path string) error {
	if s.BaudRate < 0 {
		return utils.NewConfigValidationError(path, errors.New("baud_rate must be positive"))
	}
	if s.WriteTimeoutMs < 0 {
		return utils.NewConfigValidationError(path, errors.New("write_timeout_ms cannot be negative"))
	}
	return nil
}

// WriteTimeout returns the write timeout as a duration.
func (s Serial) WriteTimeout() time.Duration {
	return ms(s.WriteTimeoutMs)
}

// Drive defaults.
const (
	DefaultTickHz                = 60
	DefaultHealthCheckIntervalMs = 5000
	DefaultSendTimeoutMs         = 200
	DefaultMaxWriteFailures      = 3
	DefaultScale                 = 100
)

// Drive configures the sampling loop and the operator's scales.
type Drive struct {
	TickHz                int  `json:"tick_hz"`
	HealthCheckIntervalMs int  `json:"health_check_interval_ms"`
	SendTimeoutMs         int  `json:"send_timeout_ms"`
	MaxWriteFailures      int  `json:"max_write_failures"`
	PowerScale            int  `json:"power_scale"`
	TurnScale             int  `json:"turn_scale"`
	Reverse               bool `json:"reverse"`
}

func (d *Drive) setDefaults() {
	if d.TickHz == 0 {
		d.TickHz = DefaultTickHz
	}
	if d.HealthCheckIntervalMs == 0 {
		d.HealthCheckIntervalMs = DefaultHealthCheckIntervalMs
	}
	if d.SendTimeoutMs == 0 {
		d.SendTimeoutMs = DefaultSendTimeoutMs
	}
	if d.MaxWriteFailures == 0 {
		d.MaxWriteFailures = DefaultMaxWriteFailures
	}
	if d.PowerScale == 0 {
		d.PowerScale = DefaultScale
	}
	if d.TurnScale == 0 {
		d.TurnScale = DefaultScale
	}
}

// Validate ensures all parts of the config are valid.
func (d *Drive) Validate(path string) error {
	if d.TickHz < 1 || d.TickHz > 1000 {
		return utils.NewConfigValidationError(path, errors.Errorf("tick_hz must be between 1 and 1000, got %d", d.TickHz))
	}
	if d.HealthCheckIntervalMs < 1 {
		return utils.NewConfigValidationError(path, errors.New("health_check_interval_ms must be positive"))
	}
	if d.SendTimeoutMs < 1 {
		return utils.NewConfigValidationError(path, errors.New("send_timeout_ms must be positive"))
	}
	if d.MaxWriteFailures < 1 {
		return utils.NewConfigValidationError(path, errors.New("max_write_failures must be positive"))
	}
	if d.PowerScale < 1 || d.PowerScale > 100 {
		return utils.NewConfigValidationError(path, errors.Errorf("power_scale must be between 1 and 100, got %d", d.PowerScale))
	}
	if d.TurnScale < 1 || d.TurnScale > 100 {
		return utils.NewConfigValidationError(path, errors.Errorf("turn_scale must be between 1 and 100, got %d", d.TurnScale))
	}
	return nil
}

// TickInterval is the time between two samples.
func (d Drive) TickInterval() time.Duration {
	return time.Second / time.Duration(d.TickHz)
}

// HealthCheckInterval is the time between two probes of the backend.
func (d Drive) HealthCheckInterval() time.Duration {
	return ms(d.HealthCheckIntervalMs)
}

// SendTimeout bounds each frame write.
func (d Drive) SendTimeout() time.Duration {
	return ms(d.SendTimeoutMs)
}

// Bridge defaults.
const (
	DefaultBridgeAddress    = "127.0.0.1:4567"
	DefaultQueueSize        = 10
	DefaultSessionWindowMs  = 3000
	DefaultGracePeriodMs    = 1000
	DefaultPollIntervalMs   = 1000
	DefaultMaxIdlePolls     = 5
	DefaultEnqueueTimeoutMs = 100
)

// Bridge configures the serial bridge.
type Bridge struct {
	Address          string `json:"address"`
	QueueSize        int    `json:"queue_size"`
	SessionWindowMs  int    `json:"session_window_ms"`
	GracePeriodMs    int    `json:"grace_period_ms"`
	PollIntervalMs   int    `json:"poll_interval_ms"`
	MaxIdlePolls     int    `json:"max_idle_polls"`
	EnqueueTimeoutMs int    `json:"enqueue_timeout_ms"`
	Device           Serial `json:"device"`
}

func (b *Bridge) setDefaults() {
	if b.Address == "" {
		b.Address = DefaultBridgeAddress
	}
	if b.QueueSize == 0 {
		b.QueueSize = DefaultQueueSize
	}
	if b.SessionWindowMs == 0 {
		b.SessionWindowMs = DefaultSessionWindowMs
	}
	if b.GracePeriodMs == 0 {
		b.GracePeriodMs = DefaultGracePeriodMs
	}
	if b.PollIntervalMs == 0 {
		b.PollIntervalMs = DefaultPollIntervalMs
	}
	if b.MaxIdlePolls == 0 {
		b.MaxIdlePolls = DefaultMaxIdlePolls
	}
	if b.EnqueueTimeoutMs == 0 {
		b.EnqueueTimeoutMs = DefaultEnqueueTimeoutMs
	}
	b.Device.setDefaults(DefaultVehicleBaudRate)
}

// Validate ensures all parts of the config are valid.
func (b *Bridge) Validate(path string) error {
	if _, _, err := net.SplitHostPort(b.Address); err != nil {
		return utils.NewConfigValidationError(path, errors.Wrap(err, "error validating address"))
	}
	for _, field := range []struct {
		name  string
		value int
	}{
		{"queue_size", b.QueueSize},
		{"session_window_ms", b.SessionWindowMs},
		{"grace_period_ms", b.GracePeriodMs},
		{"poll_interval_ms", b.PollIntervalMs},
		{"max_idle_polls", b.MaxIdlePolls},
		{"enqueue_timeout_ms", b.EnqueueTimeoutMs},
	} {
		if field.value < 1 {
			return utils.NewConfigValidationError(path, errors.Errorf("%s must be positive", field.name))
		}
	}
	return b.Device.Validate(path + ".device")
}

// ValidateServe additionally requires the device path the bridge relays to.
func (b *Bridge) ValidateServe(path string) error {
	if b.Device.Path == "" {
		return utils.NewConfigValidationFieldRequiredError(path+".device", "path")
	}
	return b.Validate(path)
}

// SessionWindow is how long a session may relay before it is retired.
func (b Bridge) SessionWindow() time.Duration { return ms(b.SessionWindowMs) }

// GracePeriod is how long a draining session waits for its worker.
func (b Bridge) GracePeriod() time.Duration { return ms(b.GracePeriodMs) }

// PollInterval bounds each wait of the worker on an empty queue.
func (b Bridge) PollInterval() time.Duration { return ms(b.PollIntervalMs) }

// EnqueueTimeout is how long the reader waits on a full queue before dropping a line.
func (b Bridge) EnqueueTimeout() time.Duration { return ms(b.EnqueueTimeoutMs) }

// Default log file rotation.
const (
	DefaultLogMaxSizeMB  = 10
	DefaultLogMaxBackups = 3
)

// Log configures logging. When File is set, logs are also written there as JSON lines and rotated
// by size.
type Log struct {
	Level      string `json:"level"`
	File       string `json:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"`
}

func (l *Log) setDefaults() {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.File == "" {
		return
	}
	if l.MaxSizeMB == 0 {
		l.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if l.MaxBackups == 0 {
		l.MaxBackups = DefaultLogMaxBackups
	}
}

// Validate ensures all parts of the config are valid.
func (l *Log) Validate(path string) error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return utils.NewConfigValidationError(path, errors.Errorf("unknown level %q", l.Level))
	}
	if l.MaxSizeMB < 0 || l.MaxBackups < 0 {
		return utils.NewConfigValidationError(path, errors.New("max_size_mb and max_backups cannot be negative"))
	}
	return nil
}

// NewLogger builds the process logger. debug overrides Level. The returned close function flushes
// and closes the log file, if any.
func (l Log) NewLogger(name string, debug bool) (logging.Logger, func() error, error) {
	level := l.Level
	if debug {
		level = "debug"
	}
	if l.File == "" {
		logger, err := logging.NewLoggerAtLevel(name, level)
		if err != nil {
			return nil, nil, err
		}
		return logger, func() error { return nil }, nil
	}
	logger, file, err := logging.NewRotatingLogger(name, level, l.FileOptions())
	if err != nil {
		return nil, nil, err
	}
	return logger, func() error {
		// syncing stdout fails on some terminals
		utils.UncheckedError(logger.Sync())
		return file.Close()
	}, nil
}

// FileOptions returns the rotation settings for File.
func (l Log) FileOptions() logging.FileOptions {
	return logging.FileOptions{Path: l.File, MaxSizeMB: l.MaxSizeMB, MaxBackups: l.MaxBackups}
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
