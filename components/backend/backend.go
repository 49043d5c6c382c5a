// Package backend defines the hardware backends that produce a control wheel from operator input
// and carry frames to the vehicle.
package backend

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/crazybot-rc/crazybot/components/input"
	"github.com/crazybot-rc/crazybot/components/movementsensor"
	"github.com/crazybot-rc/crazybot/components/movementsensor/imuwit"
	"github.com/crazybot-rc/crazybot/config"
	"github.com/crazybot-rc/crazybot/control"
	"github.com/crazybot-rc/crazybot/logging"
)

// A Backend samples operator input and writes frames to the vehicle.
//
// ProbeAndLoad never fails to the caller: a backend that cannot acquire its channels becomes
// Disabled, reports zero wheels and drops sends until a later probe succeeds.
type Backend interface {
	Name() string
	State() State
	// ProbeAndLoad acquires missing channels. It leaves a ready backend untouched.
	ProbeAndLoad(ctx context.Context) ProbeResult
	// ControlWheel returns the current wheel without blocking.
	ControlWheel() control.Wheel
	// SendData writes payload best effort, waiting at most timeout.
	SendData(payload []byte, timeout time.Duration)
	Start(ctx context.Context)
	// Stop releases every channel. It is safe on a stopped or never started backend.
	Stop(ctx context.Context) error
	HandleKey(code input.KeyCode)
}

// Kind selects a backend variant.
type Kind string

// Known backend kinds.
const (
	KindOrientation = Kind(config.BackendOrientation)
	KindKeyboard    = Kind(config.BackendKeyboard)
	KindNull        = Kind(config.BackendNull)
)

// Dependencies are the collaborators a backend may need beyond its config.
type Dependencies struct {
	// Sensor opens the orientation sensor. Defaults to the configured HWT905.
	Sensor movementsensor.Opener
	// Keys feeds the keyboard backend while it is started. May be nil.
	Keys input.Source
	// OnKeysDone is called when Keys stops on its own.
	OnKeysDone func(err error)
}

// New returns the backend selected by cfg.Backend.Kind.
func New(cfg *config.Config, deps Dependencies, logger logging.Logger) (Backend, error) {
	kind := Kind(cfg.Backend.Kind)
	logger = logger.Sublogger(string(kind))
	switch kind {
	case KindOrientation:
		opener := deps.Sensor
		if opener == nil {
			opener = imuwit.NewOpener(imuwit.Config{
				Port:     cfg.Backend.Sensor.Path,
				BaudRate: cfg.Backend.Sensor.BaudRate,
			})
		}
		return NewOrientation(opener, cfg.Vehicle, cfg.Drive.MaxWriteFailures, logger), nil
	case KindKeyboard:
		return NewKeyboard(deps.Keys, deps.OnKeysDone, cfg.Vehicle, cfg.Drive.MaxWriteFailures, logger), nil
	case KindNull:
		return NewNull(logger), nil
	default:
		return nil, utils.NewConfigValidationError("backend", errors.Errorf("unknown backend kind %q", kind))
	}
}
