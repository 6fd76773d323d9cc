package model

import (
	"linae/sequencer"
)

// TurnResolvedMsg is sent when a submitted turn has finished, successfully
// or not.
type TurnResolvedMsg struct {
	Turn Turn
	Err  error
}

// StateChangedMsg carries a sequencer transition into the TUI loop.
type StateChangedMsg struct {
	State sequencer.State
}

// TurnAppendedMsg is sent whenever a turn lands in the session history.
type TurnAppendedMsg struct {
	Turn Turn
}

// ReplyCopiedMsg reports the result of copying the last reply.
type ReplyCopiedMsg struct {
	Err error
}

// FlashTickMsg clears a transient status message.
type FlashTickMsg struct{}
