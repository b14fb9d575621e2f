package motor

import "periph.io/x/conn/v3/gpio"

// Limits reads the two travel limit switches. Both switches are wired
// active-low against a pull-up, so a low level means pressed.
type Limits struct {
	front gpio.PinIn
	rear  gpio.PinIn
}

// NewLimits creates a reader for the front and rear switches.
func NewLimits(front, rear gpio.PinIn) *Limits {
	return &Limits{front: front, rear: rear}
}

// FrontPressed reports whether the front limit switch is pressed.
func (l *Limits) FrontPressed() bool {
	return l.front.Read() == gpio.Low
}

// RearPressed reports whether the rear limit switch is pressed.
func (l *Limits) RearPressed() bool {
	return l.rear.Read() == gpio.Low
}
