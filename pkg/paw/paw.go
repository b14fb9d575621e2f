// Package paw moves the presenter paw between its two limit switches.
//
// A Controller drives the motor toward one end, busy-polls the limit
// switches and the breakers registered for that phase, halts, and then
// backs the paw off whichever switch it struck so it never rests on it.
// Motions are synchronous and only one may run at a time. A motion started
// with a context halts the motor when the context is cancelled.
package paw

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gwillem/presenter/pkg/logging"
	"github.com/gwillem/presenter/pkg/motor"
)

// ErrBusy is returned when a motion is requested while another is running
// on the same controller.
var ErrBusy = errors.New("motion already in progress")

// Controller owns one actuator's driver and limit switches.
type Controller struct {
	motor    *motor.Driver
	limits   *motor.Limits
	breakers *Registry
	log      *slog.Logger
	now      func() time.Time

	busy atomic.Bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for motion events. A nil logger keeps
// the default, which discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock sets the clock used to time motions.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// New creates a controller for the given driver and limit switches.
func New(d *motor.Driver, l *motor.Limits, opts ...Option) *Controller {
	c := &Controller{
		motor:    d,
		limits:   l,
		breakers: NewRegistry(),
		log:      logging.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Present extends the paw toward the front limit. It returns the breaker
// that ended the motion, or a *LimitSwitch when a switch did.
func (c *Controller) Present() (Breaker, error) {
	return c.PresentContext(context.Background())
}

// Retract withdraws the paw toward the rear limit.
func (c *Controller) Retract() (Breaker, error) {
	return c.RetractContext(context.Background())
}

// PresentContext is Present with cancellation. If ctx is done before the
// motion ends, the motor is halted, every breaker of the phase is reset and
// ctx.Err() is returned. The paw is not backed off.
func (c *Controller) PresentContext(ctx context.Context) (Breaker, error) {
	return c.move(ctx, Present)
}

// RetractContext is Retract with cancellation.
func (c *Controller) RetractContext(ctx context.Context) (Breaker, error) {
	return c.move(ctx, Retract)
}

// Reset parks the paw at the rear.
func (c *Controller) Reset() (Breaker, error) {
	return c.Retract()
}

// RegisterBreaker appends b to the breakers polled during phase.
func (c *Controller) RegisterBreaker(phase Phase, b Breaker) error {
	return c.breakers.Register(phase, b)
}

// UnregisterBreaker removes b from every phase.
func (c *Controller) UnregisterBreaker(b Breaker) {
	c.breakers.Unregister(b)
}

// Breakers returns the breakers registered for phase in poll order.
func (c *Controller) Breakers(phase Phase) []Breaker {
	return c.breakers.Breakers(phase)
}

// State returns the motor state.
func (c *Controller) State() motor.State {
	return c.motor.State()
}

// Limits reports whether the front and rear switches are pressed.
func (c *Controller) Limits() (front, rear bool) {
	return c.limits.FrontPressed(), c.limits.RearPressed()
}

// Busy reports whether a motion is running.
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

type travel struct {
	drive    func() error
	reverse  func() error
	struck   func() bool
	opposite func() bool
}

func (c *Controller) route(phase Phase) travel {
	if phase == Retract {
		return travel{
			drive:    c.motor.Backward,
			reverse:  c.motor.Forward,
			struck:   c.limits.RearPressed,
			opposite: c.limits.FrontPressed,
		}
	}
	return travel{
		drive:    c.motor.Forward,
		reverse:  c.motor.Backward,
		struck:   c.limits.FrontPressed,
		opposite: c.limits.RearPressed,
	}
}

func (c *Controller) move(ctx context.Context, phase Phase) (Breaker, error) {
	cause, _, err := c.motion(ctx, phase)
	return cause, err
}

// motion runs one motion and also returns the travel time, measured from
// driving the motor until the guard loop halts it. The back-off is not
// included.
func (c *Controller) motion(ctx context.Context, phase Phase) (Breaker, time.Duration, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return nil, 0, ErrBusy
	}
	defer c.busy.Store(false)

	// Registry changes made during the motion apply to the next one.
	breakers := c.breakers.Breakers(phase)
	t := c.route(phase)
	start := c.now()
	c.log.Debug("motion started", "phase", phase, "breakers", len(breakers))

	if err := t.drive(); err != nil {
		return nil, 0, fmt.Errorf("%s: start motor: %w", phase, errors.Join(err, c.halt()))
	}

	cause, err := c.guard(ctx, breakers)
	took := c.now().Sub(start)
	if err != nil {
		c.log.Warn("motion faulted", "phase", phase, "error", err, "elapsed", took)
		return nil, took, fmt.Errorf("%s: %w", phase, err)
	}

	if err := c.backOff(ctx, t); err != nil {
		return cause, took, fmt.Errorf("%s: back off: %w", phase, err)
	}

	c.log.Info("motion finished", "phase", phase, "cause", Describe(cause), "elapsed", c.now().Sub(start))
	return cause, took, nil
}

// guard polls the breakers until a limit switch trips, a breaker asks to
// stop or fails, or ctx is done. The motor is halted before it returns.
//
// A clean Stop leaves the other breakers untouched; a failure, a limit trip
// or a cancellation resets every breaker in the list.
func (c *Controller) guard(ctx context.Context, breakers []Breaker) (Breaker, error) {
	done := ctx.Done()
	for !c.limits.FrontPressed() && !c.limits.RearPressed() {
		select {
		case <-done:
			haltErr := c.halt()
			resetAll(breakers)
			return nil, errors.Join(ctx.Err(), haltErr)
		default:
		}
		for _, b := range breakers {
			r := b.Evaluate()
			switch r.Signal {
			case Stop:
				if err := c.halt(); err != nil {
					return nil, err
				}
				return b, nil
			case Fail:
				haltErr := c.halt()
				resetAll(breakers)
				fault := r.Err
				if fault == nil {
					fault = ErrBreakerFault
				}
				return nil, errors.Join(fault, haltErr)
			}
		}
	}

	haltErr := c.halt()
	resetAll(breakers)
	if haltErr != nil {
		return nil, haltErr
	}
	if c.limits.FrontPressed() {
		return &LimitSwitch{Side: Front}, nil
	}
	return &LimitSwitch{Side: Rear}, nil
}

// backOff reverses off the struck switch until it releases or the opposite
// switch closes, then stops. There is no timeout here; only a cancelled
// ctx ends it early.
func (c *Controller) backOff(ctx context.Context, t travel) error {
	if err := c.halt(); err != nil {
		return err
	}
	if err := t.reverse(); err != nil {
		return errors.Join(err, c.halt())
	}
	done := ctx.Done()
	for t.struck() && !t.opposite() {
		select {
		case <-done:
			return errors.Join(ctx.Err(), c.halt())
		default:
		}
	}
	return c.halt()
}

func (c *Controller) halt() error {
	if err := c.motor.Stop(); err != nil {
		return fmt.Errorf("halt motor: %w", err)
	}
	return nil
}

func resetAll(breakers []Breaker) {
	for _, b := range breakers {
		b.Reset()
	}
}
