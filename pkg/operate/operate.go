// Package operate runs paw motions from a single queue and publishes the
// paw's live state for monitors.
package operate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gwillem/presenter/pkg/motor"
	"github.com/gwillem/presenter/pkg/paw"
)

// MaxHz caps the sampling rate.
const MaxHz = 1000

// ErrStopped is returned for motions submitted to, or still queued in, an
// operator whose Start has returned.
var ErrStopped = errors.New("operator stopped")

// State is a snapshot of the paw.
type State struct {
	Motor     motor.State
	Front     bool // front limit pressed
	Rear      bool // rear limit pressed
	Busy      bool // a motion is running
	Last      Outcome
	Timestamp time.Time
}

// Outcome is the result of a finished motion.
type Outcome struct {
	Phase paw.Phase
	Cause paw.Breaker
	Err   error
}

// Operator serializes motions for one controller and samples its state.
type Operator struct {
	ctrl *paw.Controller
	hz   int

	mu       sync.RWMutex
	running  bool
	last     Outcome
	requests chan request
	stopped  chan struct{}
	stateCh  chan State
	logCh    chan string
}

type request struct {
	phase paw.Phase
	done  chan Outcome
}

// Config holds configuration for the operator.
type Config struct {
	Hz    int // state sampling rate, at most MaxHz
	Queue int // motions that may wait behind the running one
}

// New creates an operator for ctrl. Motions submitted before Start wait in
// the queue until it runs. An operator can be started once.
func New(ctrl *paw.Controller, cfg Config) *Operator {
	if cfg.Hz <= 0 {
		cfg.Hz = 30
	}
	cfg.Hz = min(cfg.Hz, MaxHz)
	if cfg.Queue <= 0 {
		cfg.Queue = 4
	}
	return &Operator{
		ctrl:     ctrl,
		hz:       cfg.Hz,
		requests: make(chan request, cfg.Queue),
		stopped:  make(chan struct{}),
		stateCh:  make(chan State, 1),
		logCh:    make(chan string, 10),
	}
}

// States returns a channel that receives state updates.
func (o *Operator) States() <-chan State {
	return o.stateCh
}

// Logs returns a channel that receives log messages.
func (o *Operator) Logs() <-chan string {
	return o.logCh
}

// Hz returns the sampling frequency.
func (o *Operator) Hz() int {
	return o.hz
}

// Last returns the outcome of the most recent motion.
func (o *Operator) Last() Outcome {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.last
}

func (o *Operator) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case o.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Present queues a present motion and waits for it to finish.
func (o *Operator) Present(ctx context.Context) (paw.Breaker, error) {
	return o.submit(ctx, paw.Present)
}

// Retract queues a retract motion and waits for it to finish.
func (o *Operator) Retract(ctx context.Context) (paw.Breaker, error) {
	return o.submit(ctx, paw.Retract)
}

// submit queues a motion. Cancelling ctx only stops the wait; a motion
// that already started runs on until it ends or the operator stops.
func (o *Operator) submit(ctx context.Context, phase paw.Phase) (paw.Breaker, error) {
	req := request{phase: phase, done: make(chan Outcome, 1)}
	select {
	case o.requests <- req:
	case <-o.stopped:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case out := <-req.done:
		return out.Cause, out.Err
	case <-o.stopped:
		// The worker may have finished this request just before stopping.
		select {
		case out := <-req.done:
			return out.Cause, out.Err
		default:
			return nil, ErrStopped
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Start runs the motion worker and the sampling loop until ctx is done.
// Cancelling ctx halts a motion in progress and returns once the motor is
// stopped.
func (o *Operator) Start(ctx context.Context) error {
	o.mu.Lock()
	select {
	case <-o.stopped:
		o.mu.Unlock()
		return ErrStopped
	default:
	}
	if o.running {
		o.mu.Unlock()
		return fmt.Errorf("already running")
	}
	o.running = true
	o.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		o.work(ctx)
	}()

	o.log("Operator started, sampling at %d Hz", o.hz)

	ticker := time.NewTicker(time.Second / time.Duration(o.hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			o.shutdown()
			return ctx.Err()
		case <-ticker.C:
			o.sendState(o.sample())
		}
	}
}

func (o *Operator) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-o.requests:
			if ctx.Err() != nil {
				req.done <- Outcome{Phase: req.phase, Err: ErrStopped}
				return
			}
			req.done <- o.run(ctx, req.phase)
		}
	}
}

func (o *Operator) run(ctx context.Context, phase paw.Phase) Outcome {
	var out Outcome
	out.Phase = phase
	switch phase {
	case paw.Retract:
		out.Cause, out.Err = o.ctrl.RetractContext(ctx)
	default:
		out.Cause, out.Err = o.ctrl.PresentContext(ctx)
	}

	if out.Err != nil {
		o.log("%s failed: %v", phase, out.Err)
	} else {
		o.log("%s stopped by %s", phase, paw.Describe(out.Cause))
	}

	o.mu.Lock()
	o.last = out
	o.mu.Unlock()
	return out
}

func (o *Operator) sample() State {
	front, rear := o.ctrl.Limits()
	return State{
		Motor:     o.ctrl.State(),
		Front:     front,
		Rear:      rear,
		Busy:      o.ctrl.Busy(),
		Last:      o.Last(),
		Timestamp: time.Now(),
	}
}

func (o *Operator) sendState(s State) {
	select {
	case o.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-o.stateCh:
		default:
		}
		o.stateCh <- s
	}
}

func (o *Operator) shutdown() {
	o.mu.Lock()
	o.running = false
	close(o.stopped)
	o.mu.Unlock()
	o.log("Operator stopped")
}
