package control

import (
	"testing"

	"go.viam.com/test"
)

func TestMix(t *testing.T) {
	for _, tc := range []struct {
		power, turn   int
		powerS, turnS int
		left, right   int
	}{
		{0, 0, 100, 100, 0, 0},
		{100, 0, 100, 100, 255, 255},
		{100, 50, 100, 100, 0, 255},
		{100, -50, 100, 100, 255, 0},
		{50, 0, 100, 100, 128, 128},
		{100, 25, 100, 50, 225, 255},
		{100, 25, 50, 100, 84, 157},
	} {
		cmd := Mix(Wheel{Turn: tc.turn, Power: tc.power}, Scales{Power: tc.powerS, Turn: tc.turnS}, false)
		test.That(t, cmd.Left, test.ShouldEqual, tc.left)
		test.That(t, cmd.Right, test.ShouldEqual, tc.right)
		test.That(t, cmd.Direction, test.ShouldEqual, DirectionForward)
	}

	cmd := Mix(Wheel{Turn: 50, Power: 100}, Scales{Power: 100, Turn: 80}, false)
	test.That(t, cmd.Right, test.ShouldEqual, 255)
	test.That(t, cmd.Left, test.ShouldBeLessThan, 255)
}

func TestMixRange(t *testing.T) {
	for power := -20; power <= 120; power += 7 {
		for turn := -70; turn <= 70; turn += 5 {
			for _, scale := range []int{-5, 1, 33, 100, 150} {
				cmd := Mix(Wheel{Turn: turn, Power: power}, Scales{Power: scale, Turn: scale}, false)
				test.That(t, cmd.Left, test.ShouldBeGreaterThanOrEqualTo, 0)
				test.That(t, cmd.Left, test.ShouldBeLessThanOrEqualTo, 255)
				test.That(t, cmd.Right, test.ShouldBeGreaterThanOrEqualTo, 0)
				test.That(t, cmd.Right, test.ShouldBeLessThanOrEqualTo, 255)
			}
		}
	}
}

func TestMixStraight(t *testing.T) {
	for power := 0; power <= 100; power += 10 {
		for _, scale := range []int{1, 20, 70, 100} {
			cmd := Mix(Wheel{Power: power}, Scales{Power: scale, Turn: 100}, false)
			test.That(t, cmd.Left, test.ShouldEqual, cmd.Right)
		}
	}
}

func TestMixOuterWheelKeepsBase(t *testing.T) {
	straight := Mix(Wheel{Power: 80}, DefaultScales, false)
	for turn := 1; turn <= 50; turn++ {
		right := Mix(Wheel{Turn: turn, Power: 80}, DefaultScales, false)
		test.That(t, right.Right, test.ShouldEqual, straight.Right)
		test.That(t, right.Left, test.ShouldBeLessThanOrEqualTo, straight.Left)

		left := Mix(Wheel{Turn: -turn, Power: 80}, DefaultScales, false)
		test.That(t, left.Left, test.ShouldEqual, straight.Left)
		test.That(t, left.Right, test.ShouldBeLessThanOrEqualTo, straight.Right)
	}
}

func TestMixTurnDampingMonotonic(t *testing.T) {
	prev := -1
	for turn := 0; turn <= 50; turn++ {
		cmd := Mix(Wheel{Turn: turn, Power: 100}, DefaultScales, false)
		damping := cmd.Right - cmd.Left
		test.That(t, damping, test.ShouldBeGreaterThanOrEqualTo, prev)
		prev = damping
	}

	prev = -1
	for turnScale := 1; turnScale <= 100; turnScale++ {
		cmd := Mix(Wheel{Turn: 30, Power: 100}, Scales{Power: 100, Turn: turnScale}, false)
		damping := cmd.Right - cmd.Left
		test.That(t, damping, test.ShouldBeGreaterThanOrEqualTo, prev)
		prev = damping
	}
}

func TestMixReverse(t *testing.T) {
	forward := Mix(Wheel{Turn: 10, Power: 60}, DefaultScales, false)
	reverse := Mix(Wheel{Turn: 10, Power: 60}, DefaultScales, true)
	test.That(t, reverse.Direction, test.ShouldEqual, DirectionReverse)
	test.That(t, reverse.Left, test.ShouldEqual, forward.Left)
	test.That(t, reverse.Right, test.ShouldEqual, forward.Right)
	test.That(t, reverse.Values(), test.ShouldResemble, []int{forward.Left, forward.Right, 0})
}
