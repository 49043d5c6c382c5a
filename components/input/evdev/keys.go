// Package evdev reads arrow keys from a Linux input event device.
package evdev

import "github.com/crazybot-rc/crazybot/components/input"

// Linux input event codes.
const (
	linuxKeyUp    = 103
	linuxKeyLeft  = 105
	linuxKeyRight = 106
	linuxKeyDown  = 108

	keyRelease = 0
)

var keyMap = map[uint16]input.KeyCode{
	linuxKeyUp:    input.KeyPowerUp,
	linuxKeyDown:  input.KeyPowerDown,
	linuxKeyRight: input.KeyTurnRight,
	linuxKeyLeft:  input.KeyTurnLeft,
}

// translate maps a key event to a key code. Releases are ignored; presses and autorepeats count.
func translate(code uint16, value int32) (input.KeyCode, bool) {
	if value == keyRelease {
		return 0, false
	}
	k, ok := keyMap[code]
	return k, ok
}
