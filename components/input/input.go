// Package input defines the discrete key codes that steer the keyboard backend and the sources
// that produce them.
package input

import (
	"context"
	"fmt"
)

// KeyCode is an opaque key identifier understood by backends.
type KeyCode int

// The four codes the keyboard backend reacts to.
const (
	KeyPowerUp   KeyCode = 273
	KeyPowerDown KeyCode = 274
	KeyTurnRight KeyCode = 275
	KeyTurnLeft  KeyCode = 276
)

func (k KeyCode) String() string {
	switch k {
	case KeyPowerUp:
		return "PowerUp"
	case KeyPowerDown:
		return "PowerDown"
	case KeyTurnRight:
		return "TurnRight"
	case KeyTurnLeft:
		return "TurnLeft"
	default:
		return fmt.Sprintf("Key(%d)", int(k))
	}
}

// KeyHandler receives key presses.
type KeyHandler func(code KeyCode)

// A Source delivers key presses to a handler until its context is cancelled, its input ends or it
// fails.
type Source interface {
	Run(ctx context.Context, handle KeyHandler) error
	Close() error
}
