package input

import (
	"testing"

	"go.viam.com/test"
)

func TestKeyCodes(t *testing.T) {
	test.That(t, int(KeyPowerUp), test.ShouldEqual, 273)
	test.That(t, int(KeyPowerDown), test.ShouldEqual, 274)
	test.That(t, int(KeyTurnRight), test.ShouldEqual, 275)
	test.That(t, int(KeyTurnLeft), test.ShouldEqual, 276)
	test.That(t, KeyTurnLeft.String(), test.ShouldEqual, "TurnLeft")
	test.That(t, KeyCode(32).String(), test.ShouldEqual, "Key(32)")
}
