// Package motor drives a two-pin DC motor driver and reads the travel limit
// switches at either end of the actuator.
package motor

// State is the direction the driver is currently commanding.
type State int

// Driver states.
const (
	Stop State = iota
	Forward
	Backward
	Brake
)

// AllStates returns every driver state in declaration order.
func AllStates() []State {
	return []State{Stop, Forward, Backward, Brake}
}

func (s State) String() string {
	switch s {
	case Stop:
		return "stop"
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Brake:
		return "brake"
	default:
		return "unknown"
	}
}
