package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"linae/lore"
	"linae/model"
	"linae/sequencer"
	"linae/storage"
)

type healthResponse struct {
	Status string `json:"status"`
	State  string `json:"state"`
	Model  string `json:"model,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", State: s.session.State().String()}
	if s.gateway != nil {
		resp.Model = s.gateway.DisplayName()
	}
	writeJSON(w, http.StatusOK, resp)
}

// listTurns returns the conversation, or search hits when ?q= is set.
func (s *Server) listTurns(w http.ResponseWriter, r *http.Request) {
	turns := s.session.Turns()
	if q := r.URL.Query().Get("q"); q != "" {
		writeJSON(w, http.StatusOK, storage.SearchTurns(turns, q))
		return
	}
	writeJSON(w, http.StatusOK, turns)
}

type submitError struct {
	Error string      `json:"error"`
	Turn  *model.Turn `json:"turn,omitempty"`
}

// submitTurn runs one turn and answers with the agent turn once the display
// sequence has reached Ready.
func (s *Server) submitTurn(w http.ResponseWriter, r *http.Request) {
	var sub model.Submission
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid submission: "+err.Error())
		return
	}

	// A client that hangs up must not cut the turn short.
	ctx := context.WithoutCancel(r.Context())
	turn, err := s.session.Submit(ctx, sub)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, turn)
	case errors.Is(err, model.ErrEmptySubmission):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, sequencer.ErrTurnInFlight):
		writeError(w, http.StatusConflict, err.Error())
	case turn.ID != "":
		// Configuration error: the session already appended its notice.
		s.logger.Warn("turn failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, submitError{Error: err.Error(), Turn: &turn})
	default:
		s.logger.Error("turn failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

type metricsResponse struct {
	Resonance float64              `json:"resonance"`
	Samples   []model.MetricSample `json:"samples"`
}

func (s *Server) metrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metricsResponse{
		Resonance: s.session.Resonance(),
		Samples:   s.session.Metrics(),
	})
}

type stateResponse struct {
	State     string  `json:"state"`
	Status    string  `json:"status"`
	Busy      bool    `json:"busy"`
	Resonance float64 `json:"resonance"`
}

func newStateResponse(st sequencer.State, resonance float64) stateResponse {
	return stateResponse{
		State:     st.String(),
		Status:    st.Status(),
		Busy:      st.Busy(),
		Resonance: resonance,
	}
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStateResponse(s.session.State(), s.session.Resonance()))
}

func (s *Server) concepts(w http.ResponseWriter, r *http.Request) {
	d, err := lore.Concepts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if q := r.URL.Query().Get("q"); q != "" {
		writeJSON(w, http.StatusOK, d.Filter(q))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) manifesto(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(lore.Manifesto()))
}

func (s *Server) archiveSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.archive.Sessions(r.Context())
	if err != nil {
		s.logger.Error("archive query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "archive unavailable")
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) archiveTurns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	turns, err := s.archive.Turns(r.Context(), id)
	if err != nil {
		s.logger.Error("archive query failed", zap.String("session", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "archive unavailable")
		return
	}
	if len(turns) == 0 {
		writeError(w, http.StatusNotFound, "no archived session "+id)
		return
	}
	writeJSON(w, http.StatusOK, turns)
}

func (s *Server) archiveSearch(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	matches, err := s.archive.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		s.logger.Error("archive search failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "archive unavailable")
		return
	}
	writeJSON(w, http.StatusOK, matches)
}
