package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"linae/model"
)

const (
	streamBuffer = 32
	writeTimeout = 5 * time.Second
)

// streamEvent is one websocket frame. Type is "state" or "turn".
type streamEvent struct {
	Type  string         `json:"type"`
	State *stateResponse `json:"state,omitempty"`
	Turn  *model.Turn    `json:"turn,omitempty"`
}

// streamState pushes sequencer transitions and appended turns until the
// client goes away or the server shuts down. The first frame is the
// current state.
func (s *Server) streamState(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.origins,
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer ws.CloseNow()

	events := make(chan streamEvent, streamBuffer)
	unsubscribe := s.session.Subscribe(func(ev model.Event) {
		select {
		case events <- s.toStreamEvent(ev):
		default:
			s.logger.Debug("state stream lagging, event dropped")
		}
	})
	defer unsubscribe()

	// Reads are discarded; ctx ends when the client closes.
	ctx := ws.CloseRead(r.Context())

	st := newStateResponse(s.session.State(), s.session.Resonance())
	if err := writeEvent(ctx, ws, streamEvent{Type: "state", State: &st}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			ws.Close(websocket.StatusGoingAway, "closing")
			return
		case ev := <-events:
			if err := writeEvent(ctx, ws, ev); err != nil {
				if websocket.CloseStatus(err) == -1 {
					s.logger.Debug("state stream write failed", zap.Error(err))
				}
				return
			}
		}
	}
}

func (s *Server) toStreamEvent(ev model.Event) streamEvent {
	if ev.Kind == model.EventTurn {
		t := ev.Turn
		return streamEvent{Type: "turn", Turn: &t}
	}
	st := newStateResponse(ev.State, s.session.Resonance())
	return streamEvent{Type: "state", State: &st}
}

func writeEvent(ctx context.Context, ws *websocket.Conn, ev streamEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return ws.Write(ctx, websocket.MessageText, data)
}
