package model

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"linae/sequencer"
)

// ErrEmptySubmission is returned when a submission carries no text, image
// or document.
var ErrEmptySubmission = errors.New("nothing to submit")

// BootstrapSamples is the number of synthetic samples a new session's
// chart starts with.
const BootstrapSamples = 10

// Submission is one user entry: text plus an optional image and document.
type Submission struct {
	Text     string    `json:"text"`
	Image    *Image    `json:"image,omitempty"`
	Document *Document `json:"document,omitempty"`
}

// Empty reports whether the submission has nothing to send.
func (s Submission) Empty() bool {
	return strings.TrimSpace(s.Text) == "" && s.Image == nil && s.Document == nil
}

// RequestBuilder assembles the outbound request for a submission.
type RequestBuilder interface {
	Build(sub Submission, history []Turn) (Request, error)
}

// Resolver sends a request and turns the reply into a Result. Transport
// failures are folded into the Result; only configuration errors are
// returned.
type Resolver interface {
	Resolve(ctx context.Context, req Request) (Result, error)
}

// TurnSink receives a copy of every appended turn.
type TurnSink interface {
	Record(ctx context.Context, t Turn) error
}

// EventKind tells listeners what changed.
type EventKind int

const (
	EventState EventKind = iota
	EventTurn
)

// Event is delivered to session listeners.
type Event struct {
	Kind  EventKind
	State sequencer.State
	Turn  Turn
}

// SessionOptions configures NewSession. Builder and Resolver are required.
type SessionOptions struct {
	Builder  RequestBuilder
	Resolver Resolver
	Pacing   sequencer.Pacing
	Sink     TurnSink
	Logger   *zap.Logger
	Rand     *rand.Rand
	// Bootstrap is the number of synthetic chart samples; negative disables.
	Bootstrap int
}

// Session owns one conversation: its turns, the metric window, the current
// resonance and the turn sequencer. It is safe for concurrent use; at most
// one turn is in flight at a time.
type Session struct {
	builder  RequestBuilder
	resolver Resolver
	sink     TurnSink
	logger   *zap.Logger
	seq      *sequencer.Machine

	mu        sync.RWMutex
	turns     []Turn
	metrics   *MetricWindow
	resonance float64

	lmu       sync.Mutex
	listeners map[int]func(Event)
	nextID    int

	unsubscribe func()
}

// NewSession creates an idle session.
func NewSession(opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	n := opts.Bootstrap
	if n == 0 {
		n = BootstrapSamples
	}

	s := &Session{
		builder:   opts.Builder,
		resolver:  opts.Resolver,
		sink:      opts.Sink,
		logger:    logger,
		seq:       sequencer.New(opts.Pacing),
		metrics:   NewMetricWindow(MetricWindowSize, opts.Rand),
		resonance: 100,
		listeners: make(map[int]func(Event)),
	}
	if n > 0 {
		s.metrics.Bootstrap(n, time.Now())
	}
	s.unsubscribe = s.seq.Subscribe(func(st sequencer.State) {
		s.emit(Event{Kind: EventState, State: st})
	})
	return s
}

// Submit runs one full turn: it appends the user turn, resolves the reply
// and plays the display phases before appending the agent turn, which is
// returned. A submission while another turn is in flight fails with
// sequencer.ErrTurnInFlight and changes nothing.
//
// A configuration error from the resolver is returned together with the
// system notice turn that was appended in its place.
func (s *Session) Submit(ctx context.Context, sub Submission) (Turn, error) {
	if sub.Empty() {
		return Turn{}, ErrEmptySubmission
	}
	if err := s.seq.Begin(); err != nil {
		return Turn{}, err
	}

	settled := false
	defer func() {
		if !settled {
			s.seq.Abort()
		}
	}()

	s.mu.Lock()
	history := append([]Turn(nil), s.turns...)
	s.mu.Unlock()

	user := NewUserTurn(sub.Text, sub.Image, sub.Document)
	s.appendTurn(ctx, user)

	start := time.Now()
	req, err := s.builder.Build(sub, history)
	if err != nil {
		s.logger.Error("request build failed", zap.Error(err))
		settled = true
		return s.fail(ctx, fmt.Errorf("build request: %w", err))
	}

	res, err := s.resolver.Resolve(ctx, req)
	if err != nil {
		s.logger.Error("gateway unavailable", zap.Error(err))
		settled = true
		return s.fail(ctx, err)
	}
	s.logger.Debug("turn resolved",
		zap.Duration("latency", time.Since(start)),
		zap.Bool("intervention", res.Intervention),
		zap.Bool("drifting", res.IsDrifting),
		zap.Int("citations", len(res.GroundingSources)))

	agent := NewAgentTurn(res)
	err = s.seq.Play(ctx, res.Intervention, func() {
		s.mu.Lock()
		s.metrics.Record(res, agent.Timestamp)
		s.resonance = ClampScore(res.ResonanceScore)
		s.mu.Unlock()
		s.appendTurn(ctx, agent)
	})
	if errors.Is(err, sequencer.ErrInvalidTransition) {
		return agent, err
	}
	// A cancelled ctx only shortens the display phases.
	settled = true
	return agent, nil
}

// fail appends the system notice for a turn that produced no result and
// releases the sequencer.
func (s *Session) fail(ctx context.Context, err error) (Turn, error) {
	notice := NewSystemTurn(SystemErrorMessage)
	s.appendTurn(ctx, notice)
	s.seq.Abort()
	return notice, err
}

func (s *Session) appendTurn(ctx context.Context, t Turn) {
	s.mu.Lock()
	s.turns = append(s.turns, t)
	s.mu.Unlock()

	if s.sink != nil {
		if err := s.sink.Record(ctx, t); err != nil {
			s.logger.Warn("archive write failed", zap.String("turn", t.ID), zap.Error(err))
		}
	}
	s.emit(Event{Kind: EventTurn, Turn: t})
}

// Subscribe registers fn for state and turn events and returns a function
// removing it. fn runs on the goroutine that caused the change and must not
// block.
func (s *Session) Subscribe(fn func(Event)) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

func (s *Session) emit(ev Event) {
	s.lmu.Lock()
	fns := make([]func(Event), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Turns returns a copy of the conversation, oldest first.
func (s *Session) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Turn(nil), s.turns...)
}

// LastReply returns the newest agent turn, if any.
func (s *Session) LastReply() (Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.turns) - 1; i >= 0; i-- {
		if s.turns[i].Role == RoleAgent {
			return s.turns[i], true
		}
	}
	return Turn{}, false
}

// Metrics returns the chart samples, oldest first.
func (s *Session) Metrics() []MetricSample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metrics.Samples()
}

// Resonance returns the last completed turn's resonance score, 100 before
// the first reply.
func (s *Session) Resonance() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resonance
}

// State returns the current sequencer phase.
func (s *Session) State() sequencer.State {
	return s.seq.State()
}

// Busy reports whether a turn is in flight.
func (s *Session) Busy() bool {
	return s.seq.State().Busy()
}

// Close stops pending timers and detaches from the sequencer.
func (s *Session) Close() {
	s.seq.Stop()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}
