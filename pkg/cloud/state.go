package cloud

import (
	"github.com/matzehuels/drawbridge/pkg/errors"
)

// State is an instance lifecycle state.
type State string

const (
	StatePending      State = "pending"
	StateRunning      State = "running"
	StateShuttingDown State = "shutting-down"
	StateTerminated   State = "terminated"
	StateStopping     State = "stopping"
	StateStopped      State = "stopped"
)

// Step is what a wait loop does after observing a state.
type Step int

const (
	// StepWait polls again after the interval.
	StepWait Step = iota
	// StepStart requests a start, then polls again.
	StepStart
	// StepStop requests a stop, then polls again.
	StepStop
	// StepDone means the goal state is reached.
	StepDone
)

// NextStep decides how to move an instance in state s towards running
// (running=true) or stopped (running=false).
func NextStep(s State, running bool) (Step, error) {
	switch s {
	case StatePending, StateStopping:
		return StepWait, nil
	case StateRunning:
		if running {
			return StepDone, nil
		}
		return StepStop, nil
	case StateStopped:
		if running {
			return StepStart, nil
		}
		return StepDone, nil
	case StateShuttingDown:
		return 0, errors.New(errors.ErrCodeInstanceGone, "instance is terminating")
	case StateTerminated:
		return 0, errors.New(errors.ErrCodeInstanceGone, "instance is terminated")
	default:
		return 0, errors.New(errors.ErrCodeInstanceState, "instance is in unknown state: %s", s)
	}
}
