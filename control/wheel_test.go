package control

import (
	"testing"

	"go.viam.com/test"
)

func TestNewWheel(t *testing.T) {
	test.That(t, NewWheel(0, 0), test.ShouldResemble, ZeroWheel)
	test.That(t, NewWheel(-80, 140), test.ShouldResemble, Wheel{Turn: -50, Power: 100})
	test.That(t, NewWheel(80, -3), test.ShouldResemble, Wheel{Turn: 50, Power: 0})
	test.That(t, Wheel{Turn: 12, Power: 34}.Clamped(), test.ShouldResemble, Wheel{Turn: 12, Power: 34})
	test.That(t, Wheel{Turn: -3, Power: 7}.String(), test.ShouldEqual, "turn=-3 power=7")
}

func TestNewScales(t *testing.T) {
	test.That(t, NewScales(0, 101), test.ShouldResemble, Scales{Power: 1, Turn: 100})
	test.That(t, NewScales(40, 60), test.ShouldResemble, Scales{Power: 40, Turn: 60})
}
