// Package hal hands out the GPIO pins the actuator is wired to.
//
// A Board is an explicitly owned handle: every pin it gives out is claimed
// until released, and a second claim on the same pin is rejected. There is
// no package-level pin state.
package hal

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

var (
	// ErrUnknownPin is returned when a pin name does not resolve to a GPIO.
	ErrUnknownPin = errors.New("unknown pin")
	// ErrPinClaimed is returned when a pin is already in use on this board.
	ErrPinClaimed = errors.New("pin already claimed")
)

// Board resolves pins by name and tracks which ones are in use.
type Board struct {
	mu      sync.Mutex
	lookup  func(name string) gpio.PinIO
	claimed map[string]string // resolved pin name -> name it was claimed as
}

// Open initializes the host drivers and returns a board backed by the
// periph pin registry.
func Open() (*Board, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}
	return NewBoard(gpioreg.ByName), nil
}

// NewBoard creates a board that resolves pins with lookup.
func NewBoard(lookup func(name string) gpio.PinIO) *Board {
	return &Board{
		lookup:  lookup,
		claimed: make(map[string]string),
	}
}

// Output claims a pin and configures it as an output driven low.
func (b *Board) Output(name string) (gpio.PinOut, error) {
	p, err := b.claim(name)
	if err != nil {
		return nil, err
	}
	if err := p.Out(gpio.Low); err != nil {
		b.Release(name)
		return nil, fmt.Errorf("configure output %s: %w", name, err)
	}
	return p, nil
}

// Input claims a pin and configures it as an input with the given pull.
func (b *Board) Input(name string, pull gpio.Pull) (gpio.PinIn, error) {
	p, err := b.claim(name)
	if err != nil {
		return nil, err
	}
	if err := p.In(pull, gpio.NoEdge); err != nil {
		b.Release(name)
		return nil, fmt.Errorf("configure input %s: %w", name, err)
	}
	return p, nil
}

// Release drops the claims on the named pins. Unclaimed names are ignored.
func (b *Board) Release(names ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, name := range names {
		for real, as := range b.claimed {
			if as == name || real == name {
				delete(b.claimed, real)
			}
		}
	}
}

// Claimed reports whether the named pin is currently in use.
func (b *Board) Claimed(name string) bool {
	p := b.lookup(name)
	if p == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.claimed[p.Name()]
	return ok
}

func (b *Board) claim(name string) (gpio.PinIO, error) {
	p := b.lookup(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPin, name)
	}

	// Aliases resolve to the same pin, so key on the resolved name.
	b.mu.Lock()
	defer b.mu.Unlock()
	if as, ok := b.claimed[p.Name()]; ok {
		return nil, fmt.Errorf("%w: %s (as %s)", ErrPinClaimed, p.Name(), as)
	}
	b.claimed[p.Name()] = name
	return p, nil
}

// Names lists the GPIO pin names and aliases known to the host, sorted.
// It is empty on hosts without GPIO drivers.
func Names() ([]string, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}
	var names []string
	for _, p := range gpioreg.All() {
		names = append(names, p.Name())
	}
	for _, p := range gpioreg.Aliases() {
		names = append(names, p.Name())
	}
	sort.Strings(names)
	return names, nil
}
