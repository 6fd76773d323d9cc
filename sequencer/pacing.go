package sequencer

import "time"

// Pacing is the dwell time of each display phase.
type Pacing struct {
	Witnessing  time.Duration `toml:"witnessing"`
	Aligning    time.Duration `toml:"aligning"`
	Vetoing     time.Duration `toml:"vetoing"`
	Harmonizing time.Duration `toml:"harmonizing"`
	ReadyHold   time.Duration `toml:"ready_hold"`
}

// DefaultPacing returns the stock phase timings.
func DefaultPacing() Pacing {
	return Pacing{
		Witnessing:  time.Second,
		Aligning:    800 * time.Millisecond,
		Vetoing:     time.Second,
		Harmonizing: 500 * time.Millisecond,
		ReadyHold:   3 * time.Second,
	}
}

// NoPacing returns a table with every dwell set to zero.
func NoPacing() Pacing {
	return Pacing{}
}

// Phase is one timed step of a plan.
type Phase struct {
	State State
	Dwell time.Duration
}

// Plan returns the timed phases that follow a resolved reply. The only
// data-dependent step is the branch on intervention.
func (p Pacing) Plan(intervention bool) []Phase {
	last := Phase{State: Harmonizing, Dwell: p.Harmonizing}
	if intervention {
		last = Phase{State: Vetoing, Dwell: p.Vetoing}
	}
	return []Phase{
		{State: Witnessing, Dwell: p.Witnessing},
		{State: Aligning, Dwell: p.Aligning},
		last,
	}
}
