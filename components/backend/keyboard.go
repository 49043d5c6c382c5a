package backend

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/crazybot-rc/crazybot/components/input"
	"github.com/crazybot-rc/crazybot/config"
	"github.com/crazybot-rc/crazybot/control"
	"github.com/crazybot-rc/crazybot/logging"
)

// KeyStep is how far one key press moves power or turn.
const KeyStep = 4

// Keyboard drives the vehicle from discrete key presses accumulated into a wheel.
type Keyboard struct {
	keys       input.Source
	onKeysDone func(error)
	link       *link
	logger     logging.Logger

	mu    sync.Mutex
	state State
	turn  int
	power int

	keysCancel context.CancelFunc
	keysDone   chan struct{}
	keysClosed bool
}

// NewKeyboard returns a keyboard backend. keys may be nil when presses arrive through HandleKey
// only; onKeysDone, if set, is told when keys stops on its own.
func NewKeyboard(
	keys input.Source,
	onKeysDone func(error),
	vehicle config.Serial,
	maxWriteFailures int,
	logger logging.Logger,
) *Keyboard {
	return &Keyboard{
		keys:       keys,
		onKeysDone: onKeysDone,
		link:       newLink(vehicle, maxWriteFailures, logger),
		logger:     logger,
	}
}

// Name returns "keyboard".
func (k *Keyboard) Name() string { return string(KindKeyboard) }

// State returns the current state. A ready backend whose vehicle link was dropped is disabled.
func (k *Keyboard) State() State {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.stateLocked()
}

func (k *Keyboard) stateLocked() State {
	if k.state == StateReady && !k.link.ready() {
		k.state = StateDisabled
	}
	return k.state
}

// ProbeAndLoad opens the vehicle link unless it is already open.
func (k *Keyboard) ProbeAndLoad(ctx context.Context) ProbeResult {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.stateLocked() == StateReady {
		return ReadyResult()
	}
	k.state = StateProbing
	if err := k.link.open(); err != nil {
		k.state = StateDisabled
		k.logger.Warnw("keyboard backend disabled", "reason", err)
		return DisabledResult(err)
	}
	k.state = StateReady
	k.logger.Info("keyboard backend ready")
	return ReadyResult()
}

// ControlWheel returns the accumulated wheel, or the zero wheel while not ready.
func (k *Keyboard) ControlWheel() control.Wheel {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.stateLocked() != StateReady {
		return control.ZeroWheel
	}
	return control.Wheel{Turn: k.turn, Power: k.power}
}

// HandleKey moves power or turn by KeyStep. Unknown codes are ignored.
func (k *Keyboard) HandleKey(code input.KeyCode) {
	k.mu.Lock()
	defer k.mu.Unlock()
	switch code {
	case input.KeyPowerUp:
		k.power += KeyStep
	case input.KeyPowerDown:
		k.power -= KeyStep
	case input.KeyTurnRight:
		k.turn += KeyStep
	case input.KeyTurnLeft:
		k.turn -= KeyStep
	default:
		return
	}
	w := control.NewWheel(k.turn, k.power)
	k.turn, k.power = w.Turn, w.Power
}

// SendData writes payload to the vehicle while the backend is ready.
func (k *Keyboard) SendData(payload []byte, timeout time.Duration) {
	if k.State() != StateReady {
		return
	}
	k.link.send(payload, timeout)
}

// Start begins reading the key source, if there is one.
func (k *Keyboard) Start(ctx context.Context) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.keys == nil || k.keysDone != nil {
		return
	}
	keysCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	k.keysCancel = cancel
	k.keysDone = done
	goutils.PanicCapturingGo(func() {
		defer close(done)
		err := k.keys.Run(keysCtx, k.HandleKey)
		if keysCtx.Err() != nil {
			return
		}
		if err != nil {
			k.logger.Infow("key source stopped", "error", err)
		}
		if k.onKeysDone != nil {
			k.onKeysDone(err)
		}
	})
}

// Stop stops the key source and closes the vehicle link. It waits for the key source until ctx
// is done.
func (k *Keyboard) Stop(ctx context.Context) error {
	k.mu.Lock()
	cancel, done := k.keysCancel, k.keysDone
	k.keysCancel, k.keysDone = nil, nil
	err := k.link.close()
	k.state = StateUninitialized
	closeKeys := k.keys != nil && !k.keysClosed
	k.keysClosed = true
	k.mu.Unlock()

	if closeKeys {
		if closeErr := k.keys.Close(); closeErr != nil {
			err = multierr.Combine(err, errors.Wrap(closeErr, "closing key source"))
		}
	}
	if cancel == nil {
		return err
	}
	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		err = multierr.Combine(err, errors.Wrap(ctx.Err(), "waiting for key source"))
	}
	return err
}

// LinkStats returns the vehicle link counters.
func (k *Keyboard) LinkStats() LinkStats {
	return k.link.stats()
}
