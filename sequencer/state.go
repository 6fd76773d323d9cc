// Package sequencer drives the fixed display phases a turn passes through
// between dispatch and the final reply.
//
// The phases are cosmetic: apart from the Vetoing/Harmonizing branch they do
// not depend on the reply, and their dwell times come from a Pacing table so
// tests can run with zero delay.
package sequencer

import (
	"errors"
	"strings"
)

// State is one phase of the layered pipeline animation.
type State int

const (
	Idle State = iota
	ReflexGenerating
	Witnessing
	Aligning
	Vetoing
	Harmonizing
	Ready
)

var (
	// ErrTurnInFlight is returned when a submission arrives outside Idle or Ready.
	ErrTurnInFlight = errors.New("a turn is already in flight")

	// ErrInvalidTransition is returned for a transition the machine does not allow.
	ErrInvalidTransition = errors.New("invalid sequencer transition")
)

var stateNames = map[State]string{
	Idle:             "IDLE",
	ReflexGenerating: "LAYER_1_PROCESSING",
	Witnessing:       "LAYER_3_WITNESSING",
	Aligning:         "LAYER_2_ALIGNING",
	Vetoing:          "VETOING",
	Harmonizing:      "HARMONIZING",
	Ready:            "READY",
}

// String returns the wire name of the state.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Label returns the short status label ("LAYER_" shortened to "L").
func (s State) Label() string {
	return strings.Replace(s.String(), "LAYER_", "L", 1)
}

// Status is the indicator text: "online" while no turn is in flight, the
// short label otherwise.
func (s State) Status() string {
	if !s.Busy() {
		return "online"
	}
	return s.Label()
}

// Busy reports whether a turn is in flight in this state.
func (s State) Busy() bool {
	return s != Idle && s != Ready
}

// ParseState maps a wire name back to a State.
func ParseState(name string) (State, bool) {
	for s, n := range stateNames {
		if n == name {
			return s, true
		}
	}
	return Idle, false
}

// transitions lists the allowed successor states.
var transitions = map[State][]State{
	Idle:             {ReflexGenerating},
	ReflexGenerating: {Witnessing, Ready},
	Witnessing:       {Aligning},
	Aligning:         {Vetoing, Harmonizing},
	Vetoing:          {Ready},
	Harmonizing:      {Ready},
	Ready:            {Idle, ReflexGenerating},
}

// CanTransition reports whether from → to is a legal step.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
