package backend

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/crazybot-rc/crazybot/components/input"
	"github.com/crazybot-rc/crazybot/control"
	"github.com/crazybot-rc/crazybot/logging"
)

// ErrNoHardware is the reason the null backend is always disabled.
var ErrNoHardware = errors.New("no hardware backend configured")

// Null is a backend with no hardware. It is always disabled.
type Null struct {
	logger logging.Logger
}

// NewNull returns a null backend.
func NewNull(logger logging.Logger) *Null {
	return &Null{logger: logger}
}

// Name returns "null".
func (n *Null) Name() string { return string(KindNull) }

// State is always disabled.
func (n *Null) State() State { return StateDisabled }

// ProbeAndLoad always reports ErrNoHardware.
func (n *Null) ProbeAndLoad(ctx context.Context) ProbeResult {
	return DisabledResult(ErrNoHardware)
}

// ControlWheel returns the zero wheel.
func (n *Null) ControlWheel() control.Wheel { return control.ZeroWheel }

// SendData drops payload.
func (n *Null) SendData(payload []byte, timeout time.Duration) {}

// Start does nothing.
func (n *Null) Start(ctx context.Context) {}

// Stop does nothing.
func (n *Null) Stop(ctx context.Context) error { return nil }

// HandleKey ignores keys.
func (n *Null) HandleKey(code input.KeyCode) {}
