package evdev

import (
	"testing"

	"go.viam.com/test"

	"github.com/crazybot-rc/crazybot/components/input"
)

func TestTranslate(t *testing.T) {
	for _, tc := range []struct {
		code  uint16
		value int32
		want  input.KeyCode
		ok    bool
	}{
		{linuxKeyUp, 1, input.KeyPowerUp, true},
		{linuxKeyDown, 1, input.KeyPowerDown, true},
		{linuxKeyRight, 2, input.KeyTurnRight, true},
		{linuxKeyLeft, 1, input.KeyTurnLeft, true},
		{linuxKeyLeft, keyRelease, 0, false},
		{30, 1, 0, false},
	} {
		got, ok := translate(tc.code, tc.value)
		test.That(t, ok, test.ShouldEqual, tc.ok)
		test.That(t, got, test.ShouldEqual, tc.want)
	}
}
