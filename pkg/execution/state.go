package execution

import "fmt"

// State is the lifecycle position of one execution.
type State int32

const (
	// StateConstructed is the state before submission
	StateConstructed State = iota
	// StateSubmitted means the query was handed to the driver
	StateSubmitted
	// StateCompleted means the result was parsed and returned
	StateCompleted
	// StateFailed means submission, parsing or cancellation failed the execution
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateSubmitted:
		return "submitted"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

func (s State) canTransition(to State) bool {
	switch s {
	case StateConstructed:
		return to == StateSubmitted || to == StateFailed
	case StateSubmitted:
		return to == StateCompleted || to == StateFailed
	default:
		return false
	}
}

// StateObserver is notified of every state transition.
type StateObserver func(kind string, from, to State)
