package chunk

import "errors"

// State is a chunk's position in its lifecycle. Transitions are restricted
// to the table in validTransitions; anything else is a bug in the caller.
type State uint8

const (
	StateUnloaded State = iota
	StateRequested
	StateGenerating
	StateReady
	StateVisible
	StateUnloading
)

// ErrInvalidTransition is returned by Chunk.TransitionTo for a state change
// outside the lifecycle table.
var ErrInvalidTransition = errors.New("chunk: invalid state transition")

var stateNames = [...]string{
	StateUnloaded:   "unloaded",
	StateRequested:  "requested",
	StateGenerating: "generating",
	StateReady:      "ready",
	StateVisible:    "visible",
	StateUnloading:  "unloading",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Chunks cancelled before a mesh exists drop straight back to Unloaded;
// Unloading is the teardown pass for chunks that own render resources.
var validTransitions = map[State][]State{
	StateUnloaded:   {StateRequested},
	StateRequested:  {StateGenerating, StateUnloaded},
	StateGenerating: {StateReady, StateUnloaded},
	StateReady:      {StateVisible, StateUnloading},
	StateVisible:    {StateUnloading},
	StateUnloading:  {StateUnloaded},
}

// IsValidTransition reports whether from -> to is an allowed lifecycle step.
func IsValidTransition(from, to State) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
