package driver

import (
	"go.uber.org/atomic"

	"github.com/crazybot-rc/crazybot/config"
	"github.com/crazybot-rc/crazybot/control"
)

// Controls are the operator settings the driver reads once per tick.
type Controls interface {
	PowerScale() int
	TurnScale() int
	Reverse() bool
}

// Settings are Controls that can be changed from any goroutine. Scales are clamped to 1..100.
type Settings struct {
	powerScale atomic.Int64
	turnScale  atomic.Int64
	reverse    atomic.Bool
}

// NewSettings returns settings from a drive config.
func NewSettings(cfg config.Drive) *Settings {
	s := &Settings{}
	s.Apply(cfg)
	return s
}

// Apply copies the scales and the reverse flag from cfg.
func (s *Settings) Apply(cfg config.Drive) {
	s.SetScales(cfg.PowerScale, cfg.TurnScale)
	s.SetReverse(cfg.Reverse)
}

// SetScales sets both scales.
func (s *Settings) SetScales(power, turn int) {
	scales := control.NewScales(power, turn)
	s.powerScale.Store(int64(scales.Power))
	s.turnScale.Store(int64(scales.Turn))
}

// SetReverse sets the direction flag.
func (s *Settings) SetReverse(reverse bool) {
	s.reverse.Store(reverse)
}

// PowerScale returns the power scale.
func (s *Settings) PowerScale() int { return int(s.powerScale.Load()) }

// TurnScale returns the turn scale.
func (s *Settings) TurnScale() int { return int(s.turnScale.Load()) }

// Reverse returns the direction flag.
func (s *Settings) Reverse() bool { return s.reverse.Load() }
