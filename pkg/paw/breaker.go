package paw

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrConfiguration marks setup mistakes. It never occurs mid-motion.
	ErrConfiguration = errors.New("configuration fault")
	// ErrUnknownPhase is returned when registering against a phase other
	// than Present or Retract.
	ErrUnknownPhase = fmt.Errorf("%w: unknown breaker phase", ErrConfiguration)
	// ErrMotorTimeout is returned when a Timeout breaker expires.
	ErrMotorTimeout = errors.New("motor took too long to reach limit")
	// ErrBreakerFault is the generic fault raised by ErrorBreaker.
	ErrBreakerFault = errors.New("breaker fault")
)

// Signal tells the guard loop what to do after polling a breaker.
type Signal int

const (
	// Continue keeps the motor running.
	Continue Signal = iota
	// Stop halts the motor cleanly; the breaker becomes the stop cause.
	Stop
	// Fail halts the motor and aborts the motion with Result.Err.
	Fail
)

func (s Signal) String() string {
	switch s {
	case Continue:
		return "continue"
	case Stop:
		return "stop"
	case Fail:
		return "fail"
	default:
		return "unknown"
	}
}

// Result is the outcome of a single breaker poll.
type Result struct {
	Signal Signal
	Err    error // set when Signal is Fail
}

// Results carrying no error.
var (
	Continued = Result{Signal: Continue}
	Stopped   = Result{Signal: Stop}
)

// Failed returns a Fail result carrying err.
func Failed(err error) Result {
	return Result{Signal: Fail, Err: err}
}

// Breaker is a guard polled on every iteration of a motion's guard loop.
//
// Evaluate must return quickly: the limit switches are only read between
// polls. Reset clears any timing or latching state and must be safe to call
// repeatedly and before the first Evaluate.
//
// Breakers are registered and unregistered by identity, so implementations
// should be pointer types. A breaker of a non-comparable value type can be
// registered but never unregistered.
type Breaker interface {
	Evaluate() Result
	Reset()
}

// NullBreaker stops the motor the first time it is polled.
type NullBreaker struct {
	Name string
}

func (b *NullBreaker) Evaluate() Result { return Stopped }
func (b *NullBreaker) Reset()           {}

func (b *NullBreaker) String() string {
	if b.Name != "" {
		return b.Name
	}
	return "null"
}

// ErrorBreaker fails the motion the first time it is polled. Err defaults
// to ErrBreakerFault.
type ErrorBreaker struct {
	Err error
}

func (b *ErrorBreaker) Evaluate() Result {
	if b.Err != nil {
		return Failed(b.Err)
	}
	return Failed(ErrBreakerFault)
}

func (b *ErrorBreaker) Reset() {}

func (b *ErrorBreaker) String() string { return "error" }

// Timeout fails a motion once the configured duration has passed since it
// was first polled. The clock starts lazily and is cleared by Reset and on
// expiry, so the breaker is ready for the next motion either way.
type Timeout struct {
	total time.Duration
	now   func() time.Time
	start time.Time
}

// NewTimeout creates a Timeout breaker measured against the wall clock.
func NewTimeout(total time.Duration) *Timeout {
	return NewTimeoutClock(total, time.Now)
}

// NewTimeoutClock creates a Timeout breaker reading time from now.
func NewTimeoutClock(total time.Duration, now func() time.Time) *Timeout {
	return &Timeout{total: total, now: now}
}

// Total returns the configured duration.
func (t *Timeout) Total() time.Duration {
	return t.total
}

func (t *Timeout) Evaluate() Result {
	now := t.now()
	if t.start.IsZero() {
		t.start = now
	}
	if elapsed := now.Sub(t.start); elapsed >= t.total {
		t.Reset()
		return Failed(fmt.Errorf("%w: %s elapsed, limit %s", ErrMotorTimeout, elapsed, t.total))
	}
	return Continued
}

func (t *Timeout) Reset() {
	t.start = time.Time{}
}

func (t *Timeout) String() string {
	return fmt.Sprintf("timeout(%s)", t.total)
}

// Side names a limit switch.
type Side string

// Limit switch sides.
const (
	Front Side = "front"
	Rear  Side = "rear"
)

// LimitSwitch is the stop cause reported when a limit switch ended a
// motion. It is produced by the guard loop, not registered by callers; if
// polled anyway it behaves like NullBreaker.
type LimitSwitch struct {
	Side Side
}

func (b *LimitSwitch) Evaluate() Result { return Stopped }
func (b *LimitSwitch) Reset()           {}

func (b *LimitSwitch) String() string {
	return fmt.Sprintf("limit(%s)", b.Side)
}

// MaxTotalTimeMs is the longest timeout, in milliseconds, that fits in a
// time.Duration.
const MaxTotalTimeMs = int64(math.MaxInt64 / int64(time.Millisecond))

// BreakerConfig carries the per-type settings of a breaker descriptor.
type BreakerConfig struct {
	TotalTimeMs int `json:"totalTimeMs,omitempty" yaml:"totalTimeMs,omitempty"`
}

var breakerTypes = map[string]func(BreakerConfig) Breaker{
	"TimeExpired":  newTimeoutFromConfig,
	"Timeout":      newTimeoutFromConfig,
	"LimitSwitch":  func(BreakerConfig) Breaker { return &LimitSwitch{} },
	"NullBreaker":  func(BreakerConfig) Breaker { return &NullBreaker{} },
	"ErrorBreaker": func(BreakerConfig) Breaker { return &ErrorBreaker{} },
}

func newTimeoutFromConfig(cfg BreakerConfig) Breaker {
	ms := min(int64(cfg.TotalTimeMs), MaxTotalTimeMs)
	return NewTimeout(time.Duration(ms) * time.Millisecond)
}

// NewBreaker builds a breaker from a type tag. Unrecognized tags yield a
// NullBreaker rather than an error.
func NewBreaker(typ string, cfg BreakerConfig) Breaker {
	if ctor, ok := breakerTypes[typ]; ok {
		return ctor(cfg)
	}
	return &NullBreaker{}
}

// KnownBreaker reports whether typ is a recognized breaker type tag.
func KnownBreaker(typ string) bool {
	_, ok := breakerTypes[typ]
	return ok
}

// Describe names a breaker for logs and CLI output.
func Describe(b Breaker) string {
	if b == nil {
		return "none"
	}
	if s, ok := b.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", b)
}
