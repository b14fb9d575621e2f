package motor

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
)

// Driver maps a direction onto the two input pins of an H-bridge driver.
type Driver struct {
	in1 gpio.PinOut // high drives backward, toward the rear limit
	in2 gpio.PinOut // high drives forward, toward the front limit

	mu    sync.Mutex
	state State
}

// NewDriver creates a driver on the given pins and stops the motor.
func NewDriver(in1, in2 gpio.PinOut) (*Driver, error) {
	d := &Driver{in1: in1, in2: in2}
	if err := d.Stop(); err != nil {
		return nil, err
	}
	return d, nil
}

// Forward drives toward the front limit.
func (d *Driver) Forward() error {
	return d.SetState(Forward)
}

// Backward drives toward the rear limit.
func (d *Driver) Backward() error {
	return d.SetState(Backward)
}

// Stop lets the motor coast.
func (d *Driver) Stop() error {
	return d.SetState(Stop)
}

// State returns the last commanded state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// SetState writes the pin levels for s. Values outside the known states are
// treated as Stop.
func (d *Driver) SetState(s State) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var first, second gpio.PinOut
	var firstLevel, secondLevel gpio.Level
	switch s {
	case Forward:
		first, firstLevel = d.in1, gpio.Low
		second, secondLevel = d.in2, gpio.High
	case Backward:
		first, firstLevel = d.in2, gpio.Low
		second, secondLevel = d.in1, gpio.High
	case Brake:
		first, firstLevel = d.in2, gpio.High
		second, secondLevel = d.in1, gpio.High
	default:
		s = Stop
		first, firstLevel = d.in2, gpio.Low
		second, secondLevel = d.in1, gpio.Low
	}

	// Reversals write the low side first so the bridge never sees both
	// inputs high in between.
	if err := first.Out(firstLevel); err != nil {
		return fmt.Errorf("set %s: write %s: %w", s, first, err)
	}
	if err := second.Out(secondLevel); err != nil {
		return fmt.Errorf("set %s: write %s: %w", s, second, err)
	}
	d.state = s
	return nil
}
