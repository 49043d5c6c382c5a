package control

import (
	"math"

	"github.com/samber/lo"
)

const (
	// MaxMotor is the largest value a motor accepts.
	MaxMotor = 255

	powerGamma = 0.7
	turnGamma  = 2.0
	inputGamma = 1.1
)

// Direction flag values sent alongside motor values.
const (
	DirectionReverse = 0
	DirectionForward = 1
)

// Command is one pair of motor values plus the direction flag.
type Command struct {
	Left      int
	Right     int
	Direction int
}

// Values returns the command in wire order.
func (c Command) Values() []int {
	return []int{c.Left, c.Right, c.Direction}
}

// Mix converts a wheel into motor values. The power scale shapes the base speed with a gamma below
// one so low settings still move the vehicle; the turn scale shapes how hard the inner wheel is
// slowed. Out of range inputs are clamped, so Mix never fails.
func Mix(wheel Wheel, scales Scales, reverse bool) Command {
	scales = NewScales(scales.Power, scales.Turn)

	powerNorm := float64(lo.Clamp(wheel.Power, MinPower, MaxPower)) / 100.0
	powerGain := math.Pow(float64(scales.Power)/100.0, powerGamma)
	base := int(math.RoundToEven(powerNorm * powerGain * MaxMotor))

	turnNorm := float64(lo.Clamp(wheel.Turn, MinTurn, MaxTurn)) / 50.0
	turnGain := math.Pow(float64(scales.Turn)/100.0, turnGamma)
	bias := lo.Clamp(math.Pow(math.Abs(turnNorm), inputGamma)*turnGain, 0, 1)

	left, right := base, base
	switch {
	case turnNorm < 0:
		right = int(math.RoundToEven(float64(base) * (1.0 - bias)))
	case turnNorm > 0:
		left = int(math.RoundToEven(float64(base) * (1.0 - bias)))
	}

	direction := DirectionForward
	if reverse {
		direction = DirectionReverse
	}
	return Command{
		Left:      lo.Clamp(left, 0, MaxMotor),
		Right:     lo.Clamp(right, 0, MaxMotor),
		Direction: direction,
	}
}
