// Package control turns operator input into motor commands for a differential drive vehicle.
package control

import (
	"fmt"

	"github.com/samber/lo"
)

// Wheel bounds.
const (
	MinTurn  = -50
	MaxTurn  = 50
	MinPower = 0
	MaxPower = 100
)

// Wheel is the normalized control signal sampled from an input source once per tick.
// Turn is negative for left and positive for right.
type Wheel struct {
	Turn  int
	Power int
}

// ZeroWheel is the wheel reported by sources that are not ready.
var ZeroWheel = Wheel{}

// NewWheel returns a wheel with turn and power clamped into range.
func NewWheel(turn, power int) Wheel {
	return Wheel{
		Turn:  lo.Clamp(turn, MinTurn, MaxTurn),
		Power: lo.Clamp(power, MinPower, MaxPower),
	}
}

// Clamped returns w with both axes clamped into range.
func (w Wheel) Clamped() Wheel {
	return NewWheel(w.Turn, w.Power)
}

func (w Wheel) String() string {
	return fmt.Sprintf("turn=%d power=%d", w.Turn, w.Power)
}

// Scale bounds, shared by the power and turn scales.
const (
	MinScale = 1
	MaxScale = 100
)

// Scales are the operator's power and turn aggressiveness settings.
type Scales struct {
	Power int
	Turn  int
}

// NewScales returns scales clamped to [MinScale, MaxScale].
func NewScales(power, turn int) Scales {
	return Scales{
		Power: lo.Clamp(power, MinScale, MaxScale),
		Turn:  lo.Clamp(turn, MinScale, MaxScale),
	}
}

// DefaultScales are full power and full turn.
var DefaultScales = Scales{Power: MaxScale, Turn: MaxScale}
