package paw

import (
	"context"
	"fmt"
	"time"
)

// DefaultMaxRunTime is the shortest timeout suggested for a full stroke.
const DefaultMaxRunTime = 1400 * time.Millisecond

// DefaultMargin scales the measured stroke time into a timeout.
const DefaultMargin = 1.5

// Calibration holds the measured full-stroke travel time in each direction.
type Calibration struct {
	Present time.Duration `json:"present"`
	Retract time.Duration `json:"retract"`
}

// Calibrate parks the paw at the rear, then times a full present stroke and
// a full retract stroke. Each stroke must end on its own limit switch. The
// times cover travel up to the limit halt, without the back-off.
func Calibrate(ctx context.Context, c *Controller) (Calibration, error) {
	if _, err := c.RetractContext(ctx); err != nil {
		return Calibration{}, fmt.Errorf("park: %w", err)
	}

	present, err := c.stroke(ctx, Present, Front)
	if err != nil {
		return Calibration{}, err
	}
	retract, err := c.stroke(ctx, Retract, Rear)
	if err != nil {
		return Calibration{}, err
	}
	return Calibration{Present: present, Retract: retract}, nil
}

// stroke times one motion from driving the motor to the limit halt. The
// back-off off the switch is not counted.
func (c *Controller) stroke(ctx context.Context, phase Phase, want Side) (time.Duration, error) {
	cause, elapsed, err := c.motion(ctx, phase)
	if err != nil {
		return 0, fmt.Errorf("time %s stroke: %w", phase, err)
	}
	if ls, ok := cause.(*LimitSwitch); !ok || ls.Side != want {
		return 0, fmt.Errorf("time %s stroke: stopped by %s before reaching the %s limit", phase, Describe(cause), want)
	}
	return elapsed, nil
}

// SuggestTimeout returns a timeout for the slower stroke scaled by margin,
// rounded up to a whole millisecond and never below DefaultMaxRunTime.
// A margin of zero or less uses DefaultMargin.
func (c Calibration) SuggestTimeout(margin float64) time.Duration {
	if margin <= 0 {
		margin = DefaultMargin
	}
	longest := max(c.Present, c.Retract)
	d := time.Duration(float64(longest) * margin)
	if r := d % time.Millisecond; r != 0 {
		d += time.Millisecond - r
	}
	return max(d, DefaultMaxRunTime)
}

// TimeoutBreakers returns Timeout descriptors for both phases using the
// suggested timeout.
func (c Calibration) TimeoutBreakers(margin float64) []BreakerDef {
	ms := int(c.SuggestTimeout(margin) / time.Millisecond)
	defs := make([]BreakerDef, 0, 2)
	for _, phase := range Phases() {
		defs = append(defs, BreakerDef{
			Type:   "TimeExpired",
			Phase:  string(phase),
			Config: BreakerConfig{TotalTimeMs: ms},
		})
	}
	return defs
}
