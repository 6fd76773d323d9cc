package model

import (
	"context"
	"errors"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrNoReply is returned when there is no agent turn to copy.
var ErrNoReply = errors.New("no reply yet")

// SubmitCmd runs a turn off the UI goroutine.
func (s *Session) SubmitCmd(ctx context.Context, sub Submission) tea.Cmd {
	return func() tea.Msg {
		turn, err := s.Submit(ctx, sub)
		return TurnResolvedMsg{Turn: turn, Err: err}
	}
}

// Bridge forwards session events into a running program as tea messages.
// It returns the unsubscribe function.
func (s *Session) Bridge(send func(tea.Msg)) func() {
	return s.Subscribe(func(ev Event) {
		switch ev.Kind {
		case EventState:
			send(StateChangedMsg{State: ev.State})
		case EventTurn:
			send(TurnAppendedMsg{Turn: ev.Turn})
		}
	})
}

// CopyLastReplyCmd copies the newest agent reply to the system clipboard.
func (s *Session) CopyLastReplyCmd() tea.Cmd {
	return func() tea.Msg {
		turn, ok := s.LastReply()
		if !ok {
			return ReplyCopiedMsg{Err: ErrNoReply}
		}
		return ReplyCopiedMsg{Err: clipboard.WriteAll(turn.Content)}
	}
}

// FlashTick schedules the end of a transient status message.
func FlashTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return FlashTickMsg{}
	})
}
