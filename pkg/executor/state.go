package executor

import "fmt"

// Phase is the coarse state of a fallback run.
type Phase int

const (
	// PhaseAttempting means chain[Index] is about to be (or is being) tried.
	PhaseAttempting Phase = iota
	// PhaseSucceeded means chain[Index] produced a response.
	PhaseSucceeded
	// PhaseFailed means every model in the chain failed.
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseAttempting:
		return "attempting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is a position in the fallback state machine.
type State struct {
	Phase Phase
	Index int
}

// Start is the initial state: attempting the primary.
func Start() State {
	return State{Phase: PhaseAttempting}
}

// Terminal reports whether no further attempts follow.
func (s State) Terminal() bool {
	return s.Phase != PhaseAttempting
}

// Next returns the state after the attempt at s.Index finished. Terminal
// states are returned unchanged.
func Next(s State, succeeded bool, chainLen int) State {
	if s.Terminal() {
		return s
	}
	if succeeded {
		return State{Phase: PhaseSucceeded, Index: s.Index}
	}
	if s.Index+1 >= chainLen {
		return State{Phase: PhaseFailed, Index: s.Index}
	}
	return State{Phase: PhaseAttempting, Index: s.Index + 1}
}
