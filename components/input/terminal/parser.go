package terminal

import "github.com/crazybot-rc/crazybot/components/input"

const (
	esc       = 0x1b
	csi       = '['
	ctrlC     = 0x03
	ctrlD     = 0x04
	arrowUp   = 'A'
	arrowDown = 'B'
	arrowRt   = 'C'
	arrowLt   = 'D'
)

type parseState int

const (
	stateGround parseState = iota
	stateEscape
	stateCSI
)

// parser turns raw terminal bytes into key codes. Arrow keys arrive as ESC [ A..D; WASD is
// accepted too.
type parser struct {
	state parseState
}

// feed consumes one byte. It returns a key when b completes one, and quit when the user asked to
// leave.
func (p *parser) feed(b byte) (code input.KeyCode, ok, quit bool) {
	switch p.state {
	case stateEscape:
		if b == csi {
			p.state = stateCSI
			return 0, false, false
		}
		p.state = stateGround
		return p.ground(b)
	case stateCSI:
		p.state = stateGround
		switch b {
		case arrowUp:
			return input.KeyPowerUp, true, false
		case arrowDown:
			return input.KeyPowerDown, true, false
		case arrowRt:
			return input.KeyTurnRight, true, false
		case arrowLt:
			return input.KeyTurnLeft, true, false
		}
		return 0, false, false
	default:
		return p.ground(b)
	}
}

func (p *parser) ground(b byte) (input.KeyCode, bool, bool) {
	switch b {
	case esc:
		p.state = stateEscape
	case ctrlC, ctrlD, 'q':
		return 0, false, true
	case 'w', 'W':
		return input.KeyPowerUp, true, false
	case 's', 'S':
		return input.KeyPowerDown, true, false
	case 'd', 'D':
		return input.KeyTurnRight, true, false
	case 'a', 'A':
		return input.KeyTurnLeft, true, false
	}
	return 0, false, false
}
