package paw

import (
	"sync"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/gwillem/presenter/pkg/motor"
)

// rig simulates the actuator: every read of the front switch is one tick,
// and on each tick the paw moves one step in the direction the driver pins
// command. The rear switch closes at position 0 and below, the front switch
// at length and above.
type rig struct {
	mu         sync.Mutex
	pos        int
	length     int
	stuck      bool
	frontReads int
	onTick     func(tick int, pos int)

	in1, in2 *gpiotest.Pin
}

type switchPin struct {
	*gpiotest.Pin
	read func() gpio.Level
}

func (p *switchPin) Read() gpio.Level {
	return p.read()
}

func newRig(t *testing.T, pos, length int, opts ...Option) (*rig, *Controller) {
	t.Helper()
	r := &rig{
		pos:    pos,
		length: length,
		in1:    &gpiotest.Pin{N: "IN1"},
		in2:    &gpiotest.Pin{N: "IN2"},
	}
	d, err := motor.NewDriver(r.in1, r.in2)
	if err != nil {
		t.Fatalf("NewDriver error: %v", err)
	}
	front := &switchPin{Pin: &gpiotest.Pin{N: "FRONT"}, read: r.readFront}
	rear := &switchPin{Pin: &gpiotest.Pin{N: "REAR"}, read: r.readRear}
	return r, New(d, motor.NewLimits(front, rear), opts...)
}

func (r *rig) direction() int {
	in1, in2 := r.in1.Read(), r.in2.Read()
	switch {
	case in1 == gpio.Low && in2 == gpio.High:
		return 1
	case in1 == gpio.High && in2 == gpio.Low:
		return -1
	}
	return 0
}

func (r *rig) readFront() gpio.Level {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frontReads++
	if !r.stuck {
		r.pos += r.direction()
	}
	if r.onTick != nil {
		r.onTick(r.frontReads, r.pos)
	}
	if r.pos >= r.length {
		return gpio.Low
	}
	return gpio.High
}

func (r *rig) readRear() gpio.Level {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pos <= 0 {
		return gpio.Low
	}
	return gpio.High
}

func (r *rig) position() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos
}

// countingBreaker returns a fixed result and counts polls and resets.
type countingBreaker struct {
	result Result
	polls  int
	resets int
	// onReset runs inside Reset, before the count is taken.
	onReset func()
}

func (b *countingBreaker) Evaluate() Result {
	b.polls++
	return b.result
}

func (b *countingBreaker) Reset() {
	if b.onReset != nil {
		b.onReset()
	}
	b.resets++
}

// stepClock returns a clock that advances by step on every call.
func stepClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(step)
		return t
	}
}
