package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"linae/lore"
	"linae/model"
	"linae/prompt"
	"linae/provider"
	"linae/provider/testutil"
	"linae/sequencer"
	"linae/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	mock    *testutil.MockProvider
	session *model.Session
	ts      *httptest.Server
}

func newFixture(t *testing.T, resolver model.Resolver, archive *storage.Archive) *fixture {
	t.Helper()

	mock := testutil.NewMockProvider("mock-model")
	gw := provider.NewStaticGateway(mock, time.Second, nil)
	if resolver == nil {
		resolver = gw
	}

	opts := model.SessionOptions{
		Builder:  prompt.NewBuilder(prompt.DefaultOptions(), nil),
		Resolver: resolver,
		Pacing:   sequencer.NoPacing(),
	}
	if archive != nil {
		opts.Sink = archive.Sink("s1")
	}
	session := model.NewSession(opts)

	srv := New(Options{Session: session, Archive: archive, Gateway: gw})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		session.Close()
	})

	return &fixture{mock: mock, session: session, ts: ts}
}

func (f *fixture) post(t *testing.T, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(f.ts.URL+"/api/turns", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *fixture) get(t *testing.T, path string, v any) int {
	t.Helper()
	resp, err := http.Get(f.ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil, nil)

	var got healthResponse
	require.Equal(t, http.StatusOK, f.get(t, "/api/healthz", &got))
	assert.Equal(t, "ok", got.Status)
	assert.Equal(t, "IDLE", got.State)
	assert.Equal(t, "mock-model", got.Model)
}

func TestSubmitTurn(t *testing.T) {
	f := newFixture(t, nil, nil)

	resp := f.post(t, `{"text":"hello"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	turn := decode[model.Turn](t, resp)
	assert.Equal(t, model.RoleAgent, turn.Role)
	assert.Equal(t, "Here is the considered answer.", turn.Content)
	require.NotNil(t, turn.Result)
	assert.Equal(t, 91.0, turn.Result.ResonanceScore)

	var turns []model.Turn
	require.Equal(t, http.StatusOK, f.get(t, "/api/turns", &turns))
	require.Len(t, turns, 2)
	assert.Equal(t, "hello", turns[0].Content)

	var matches []storage.TurnMatch
	require.Equal(t, http.StatusOK, f.get(t, "/api/turns?q=considered", &matches))
	require.NotEmpty(t, matches)
	assert.Equal(t, 1, matches[0].TurnIndex)

	var metrics metricsResponse
	require.Equal(t, http.StatusOK, f.get(t, "/api/metrics", &metrics))
	assert.Equal(t, 91.0, metrics.Resonance)
	assert.Len(t, metrics.Samples, model.BootstrapSamples+1)

	var st stateResponse
	require.Equal(t, http.StatusOK, f.get(t, "/api/state", &st))
	assert.Equal(t, "online", st.Status)
	assert.False(t, st.Busy)
}

func TestSubmitTurnWithImage(t *testing.T) {
	f := newFixture(t, nil, nil)

	// "AQID" is base64 for 1,2,3.
	resp := f.post(t, `{"text":"look","image":{"mimeType":"image/png","data":"AQID"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reqs := f.mock.Requests()
	require.Len(t, reqs, 1)
	parts := reqs[0].Contents[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, []byte{1, 2, 3}, parts[0].Data)
	assert.Equal(t, "image/png", parts[0].MIMEType)
}

func TestSubmitRejectsBadInput(t *testing.T) {
	f := newFixture(t, nil, nil)

	tests := map[string]string{
		"empty":     `{"text":"   "}`,
		"not json":  `hello`,
		"bad image": `{"image":{"data":"%%%"}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			resp := f.post(t, body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
	assert.Empty(t, f.session.Turns())
}

func TestSubmitWhileInFlightConflicts(t *testing.T) {
	f := newFixture(t, nil, nil)

	release := make(chan struct{})
	f.mock.GenerateFunc = func(ctx context.Context, req model.Request) (model.Reply, error) {
		<-release
		return model.Reply{Text: testutil.ConformingReply}, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var firstStatus int
	go func() {
		defer wg.Done()
		resp, err := http.Post(f.ts.URL+"/api/turns", "application/json", strings.NewReader(`{"text":"first"}`))
		if err == nil {
			firstStatus = resp.StatusCode
			resp.Body.Close()
		}
	}()

	require.Eventually(t, f.session.Busy, time.Second, 5*time.Millisecond)

	resp := f.post(t, `{"text":"second"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	close(release)
	wg.Wait()
	assert.Equal(t, http.StatusOK, firstStatus)
	assert.Len(t, f.session.Turns(), 2)
}

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, model.Request) (model.Result, error) {
	return model.Result{}, errors.New("API key not found in environment")
}

func TestSubmitConfigurationError(t *testing.T) {
	f := newFixture(t, failingResolver{}, nil)

	resp := f.post(t, `{"text":"hello"}`)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	got := decode[submitError](t, resp)
	assert.Contains(t, got.Error, "API key")
	require.NotNil(t, got.Turn)
	assert.Equal(t, model.SystemErrorMessage, got.Turn.Content)
	assert.False(t, f.session.Busy())
}

func TestConceptsAndManifesto(t *testing.T) {
	f := newFixture(t, nil, nil)

	var all lore.Dictionary
	require.Equal(t, http.StatusOK, f.get(t, "/api/concepts", &all))
	assert.Len(t, all.Mappings, 7)

	var filtered []lore.Mapping
	require.Equal(t, http.StatusOK, f.get(t, "/api/concepts?q=Axis", &filtered))
	require.NotEmpty(t, filtered)
	assert.Equal(t, "Trục (The Axis)", filtered[0].Philosophy)

	resp, err := http.Get(f.ts.URL + "/api/manifesto")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/markdown; charset=utf-8", resp.Header.Get("Content-Type"))
}

func TestArchiveRoutes(t *testing.T) {
	archive, err := storage.OpenArchive(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })

	f := newFixture(t, nil, archive)
	require.Equal(t, http.StatusOK, f.post(t, `{"text":"remember this"}`).StatusCode)

	var sessions []storage.SessionSummary
	require.Equal(t, http.StatusOK, f.get(t, "/api/archive/sessions", &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, "s1", sessions[0].ID)
	assert.Equal(t, 2, sessions[0].Turns)

	var turns []model.Turn
	require.Equal(t, http.StatusOK, f.get(t, "/api/archive/sessions/s1", &turns))
	assert.Len(t, turns, 2)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/archive/sessions/other", nil))

	var matches []storage.TurnMatch
	require.Equal(t, http.StatusOK, f.get(t, "/api/archive/search?q=REMEMBER", &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, model.RoleUser, matches[0].Role)

	assert.Equal(t, http.StatusBadRequest, f.get(t, "/api/archive/search?q=x&limit=-1", nil))
}

func TestArchiveRoutesAbsentWithoutArchive(t *testing.T) {
	f := newFixture(t, nil, nil)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/archive/sessions", nil))
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, nil, nil)

	req, err := http.NewRequest(http.MethodOptions, f.ts.URL+"/api/turns", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestStateStream(t *testing.T) {
	f := newFixture(t, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/api/state/stream"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	read := func() streamEvent {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var ev streamEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	}

	first := read()
	require.Equal(t, "state", first.Type)
	assert.Equal(t, "IDLE", first.State.State)

	done := make(chan error, 1)
	go func() {
		_, err := f.session.Submit(context.Background(), model.Submission{Text: "hello"})
		done <- err
	}()

	var states []string
	var agent *model.Turn
	for agent == nil {
		ev := read()
		switch ev.Type {
		case "state":
			states = append(states, ev.State.State)
		case "turn":
			if ev.Turn.Role == model.RoleAgent {
				agent = ev.Turn
			}
		}
	}
	require.NoError(t, <-done)

	assert.Equal(t, "Here is the considered answer.", agent.Content)
	assert.Equal(t, []string{"LAYER_1_PROCESSING", "LAYER_3_WITNESSING", "LAYER_2_ALIGNING", "HARMONIZING"}, states)

	conn.Close(websocket.StatusNormalClosure, "")
}

func TestServeStopsOnCancel(t *testing.T) {
	session := model.NewSession(model.SessionOptions{
		Builder:  prompt.NewBuilder(prompt.DefaultOptions(), nil),
		Resolver: failingResolver{},
		Pacing:   sequencer.NoPacing(),
	})
	defer session.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(Options{Session: session}).Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/api/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	http.DefaultClient.CloseIdleConnections()
}
