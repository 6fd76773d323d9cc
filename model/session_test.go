package model

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"linae/sequencer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubBuilder struct {
	mu      sync.Mutex
	history [][]Turn
	err     error
}

func (b *stubBuilder) Build(sub Submission, history []Turn) (Request, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = append(b.history, history)
	if b.err != nil {
		return Request{}, b.err
	}
	return Request{Contents: []Content{{Role: ContentUser, Parts: []Part{{Text: sub.Text}}}}}, nil
}

type resolverFunc func(ctx context.Context, req Request) (Result, error)

func (f resolverFunc) Resolve(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}

func fixed(res Result) resolverFunc {
	return func(context.Context, Request) (Result, error) { return res, nil }
}

type memorySink struct {
	mu    sync.Mutex
	turns []Turn
}

func (m *memorySink) Record(_ context.Context, t Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, t)
	return nil
}

func newTestSession(t *testing.T, r Resolver, sink TurnSink) *Session {
	t.Helper()
	s := NewSession(SessionOptions{
		Builder:  &stubBuilder{},
		Resolver: r,
		Pacing:   sequencer.NoPacing(),
		Sink:     sink,
		Rand:     rand.New(rand.NewSource(1)),
	})
	t.Cleanup(s.Close)
	return s
}

var calmResult = Result{
	ReflexResponse:   "reflex",
	ReflexConfidence: 77,
	CoreAnalysis:     "aligned",
	ResonanceScore:   64,
	FinalResponse:    "answer",
}

func TestSubmitAppendsUserAndAgentTurns(t *testing.T) {
	sink := &memorySink{}
	s := newTestSession(t, fixed(calmResult), sink)

	var mu sync.Mutex
	var states []sequencer.State
	s.Subscribe(func(ev Event) {
		if ev.Kind == EventState {
			mu.Lock()
			states = append(states, ev.State)
			mu.Unlock()
		}
	})

	turn, err := s.Submit(context.Background(), Submission{Text: "hello"})
	require.NoError(t, err)

	assert.Equal(t, RoleAgent, turn.Role)
	assert.Equal(t, "answer", turn.Content)
	require.NotNil(t, turn.Result)

	turns := s.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, "hello", turns[0].Content)
	assert.Equal(t, turn.ID, turns[1].ID)

	assert.Equal(t, 64.0, s.Resonance())
	samples := s.Metrics()
	require.Len(t, samples, BootstrapSamples+1)
	last := samples[len(samples)-1]
	assert.Equal(t, 77.0, last.Optimization)
	assert.Equal(t, 64.0, last.Resonance)
	assert.Less(t, last.Drift, 10.0)

	assert.Equal(t, sequencer.Idle, s.State())
	mu.Lock()
	assert.Equal(t, []sequencer.State{
		sequencer.ReflexGenerating, sequencer.Witnessing, sequencer.Aligning,
		sequencer.Harmonizing, sequencer.Ready, sequencer.Idle,
	}, states)
	mu.Unlock()

	sink.mu.Lock()
	assert.Len(t, sink.turns, 2)
	sink.mu.Unlock()
}

func TestSubmitReplaysPriorTurns(t *testing.T) {
	b := &stubBuilder{}
	s := NewSession(SessionOptions{Builder: b, Resolver: fixed(calmResult), Pacing: sequencer.NoPacing()})
	defer s.Close()

	_, err := s.Submit(context.Background(), Submission{Text: "one"})
	require.NoError(t, err)
	_, err = s.Submit(context.Background(), Submission{Text: "two"})
	require.NoError(t, err)

	b.mu.Lock()
	defer b.mu.Unlock()
	require.Len(t, b.history, 2)
	assert.Empty(t, b.history[0])
	require.Len(t, b.history[1], 2, "history excludes the turn being submitted")
	assert.Equal(t, "one", b.history[1][0].Content)
}

func TestSubmitDriftingRecordsHighDrift(t *testing.T) {
	res := calmResult
	res.IsDrifting = true
	res.Intervention = true
	s := newTestSession(t, fixed(res), nil)

	_, err := s.Submit(context.Background(), Submission{Text: "x"})
	require.NoError(t, err)

	samples := s.Metrics()
	assert.Equal(t, 80.0, samples[len(samples)-1].Drift)
}

func TestSubmitDisconnectedResult(t *testing.T) {
	s := newTestSession(t, fixed(DisconnectedResult()), nil)

	turn, err := s.Submit(context.Background(), Submission{Text: "hello"})
	require.NoError(t, err)

	assert.Equal(t, DisconnectedMessage, turn.Content)
	require.NotNil(t, turn.Result)
	assert.True(t, turn.Result.Intervention)
	assert.Equal(t, 0.0, s.Resonance())
}

func TestSubmitConfigurationError(t *testing.T) {
	errNoKey := errors.New("no key")
	s := newTestSession(t, resolverFunc(func(context.Context, Request) (Result, error) {
		return Result{}, errNoKey
	}), nil)

	turn, err := s.Submit(context.Background(), Submission{Text: "hello"})
	assert.ErrorIs(t, err, errNoKey)
	assert.Equal(t, SystemErrorMessage, turn.Content)
	assert.Nil(t, turn.Result)

	turns := s.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, SystemErrorMessage, turns[1].Content)

	assert.Equal(t, sequencer.Idle, s.State())
	assert.Equal(t, 100.0, s.Resonance(), "failed turns leave resonance alone")
	assert.Len(t, s.Metrics(), BootstrapSamples)

	// The guard is released, so the next submission proceeds.
	_, err = s.Submit(context.Background(), Submission{Text: "again"})
	assert.ErrorIs(t, err, errNoKey)
}

func TestSubmitBuildErrorReleasesGuard(t *testing.T) {
	s := NewSession(SessionOptions{
		Builder:  &stubBuilder{err: errors.New("boom")},
		Resolver: fixed(calmResult),
		Pacing:   sequencer.NoPacing(),
	})
	defer s.Close()

	turn, err := s.Submit(context.Background(), Submission{Text: "x"})
	require.Error(t, err)
	assert.Equal(t, SystemErrorMessage, turn.Content)
	assert.False(t, s.Busy())
}

func TestSubmitRejectsConcurrentTurn(t *testing.T) {
	release := make(chan struct{})
	s := newTestSession(t, resolverFunc(func(ctx context.Context, _ Request) (Result, error) {
		<-release
		return calmResult, nil
	}), nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), Submission{Text: "first"})
		done <- err
	}()

	require.Eventually(t, s.Busy, time.Second, time.Millisecond)

	_, err := s.Submit(context.Background(), Submission{Text: "second"})
	assert.ErrorIs(t, err, sequencer.ErrTurnInFlight)

	close(release)
	require.NoError(t, <-done)

	turns := s.Turns()
	require.Len(t, turns, 2, "rejected submission must not append a turn")
	assert.Equal(t, "first", turns[0].Content)
}

func TestSubmitEmpty(t *testing.T) {
	s := newTestSession(t, fixed(calmResult), nil)

	_, err := s.Submit(context.Background(), Submission{Text: "   "})
	assert.ErrorIs(t, err, ErrEmptySubmission)
	assert.Empty(t, s.Turns())

	_, err = s.Submit(context.Background(), Submission{Image: &Image{MIMEType: "image/png", Data: []byte{1}}})
	assert.NoError(t, err, "an image alone is a valid submission")
}

func TestLastReply(t *testing.T) {
	s := newTestSession(t, fixed(calmResult), nil)

	_, ok := s.LastReply()
	assert.False(t, ok)

	_, err := s.Submit(context.Background(), Submission{Text: "x"})
	require.NoError(t, err)

	reply, ok := s.LastReply()
	require.True(t, ok)
	assert.Equal(t, "answer", reply.Content)
}

func TestBridgeForwardsEvents(t *testing.T) {
	s := newTestSession(t, fixed(calmResult), nil)

	var mu sync.Mutex
	var msgs []any
	unsubscribe := s.Bridge(func(m tea.Msg) {
		mu.Lock()
		msgs = append(msgs, m)
		mu.Unlock()
	})
	defer unsubscribe()

	_, err := s.Submit(context.Background(), Submission{Text: "x"})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	var appended, changed int
	for _, m := range msgs {
		switch m.(type) {
		case TurnAppendedMsg:
			appended++
		case StateChangedMsg:
			changed++
		}
	}
	assert.Equal(t, 2, appended)
	assert.Equal(t, 6, changed)
}
