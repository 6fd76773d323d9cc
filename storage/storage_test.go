package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linae/model"
)

func sampleTurns() []model.Turn {
	user := model.NewUserTurn("What is the Axis?", &model.Image{MIMEType: "image/png", Data: []byte{1, 2, 3}}, &model.Document{Name: "notes.txt", Text: "ABC"})
	agent := model.NewAgentTurn(model.Result{
		ReflexResponse:   "A fixed point.",
		ReflexConfidence: 77,
		CoreAnalysis:     "Core kernel policy.",
		ResonanceScore:   88,
		FinalResponse:    "The Axis is the immutable reference.",
		GroundingSources: []model.Citation{{Title: "Docs", URI: "https://example.com"}},
	})
	notice := model.NewSystemTurn(model.SystemErrorMessage)
	agent.Timestamp = user.Timestamp.Add(time.Second)
	notice.Timestamp = user.Timestamp.Add(2 * time.Second)
	return []model.Turn{user, agent, notice}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"spaces", "What is the Axis?", "what-is-the-axis"},
		{"separators", `a/b\c:d`, "a-b-c-d"},
		{"empty", "", "transcript"},
		{"only punctuation", "???", "transcript"},
		{"long", strings.Repeat("x", 80), strings.Repeat("x", 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.in); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenerateTranscriptName(t *testing.T) {
	if got := GenerateTranscriptName("  hello\n  world "); got != "hello world" {
		t.Errorf("got %q", got)
	}

	long := GenerateTranscriptName(strings.Repeat("ă", 40))
	if !strings.HasSuffix(long, "...") || len([]rune(long)) != 33 {
		t.Errorf("long name not truncated on runes: %q", long)
	}

	if got := GenerateTranscriptName(""); !strings.HasPrefix(got, "Session ") {
		t.Errorf("empty message name = %q", got)
	}
}

func TestExportToJSON(t *testing.T) {
	dir := t.TempDir()
	turns := sampleTurns()
	tr := NewTranscript("gemini", "gemini-2.5-flash", turns, []model.MetricSample{{Optimization: 77, Resonance: 88}}, 88)
	assert.Equal(t, "What is the Axis?", tr.Name)

	path := GenerateExportPath(filepath.Join(dir, "exports"), tr.Name)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "linae-transcript-what-is-the-axis-"))
	assert.Equal(t, ".json", filepath.Ext(path))

	require.NoError(t, ExportToJSON(tr, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := LoadTranscript(path)
	require.NoError(t, err)
	assert.Equal(t, tr.ID, got.ID)
	require.Len(t, got.Turns, 3)
	assert.Equal(t, []byte{1, 2, 3}, got.Turns[0].Image.Data)
	require.NotNil(t, got.Turns[1].Result)
	assert.Equal(t, 88.0, got.Turns[1].Result.ResonanceScore)
	assert.Nil(t, got.Turns[2].Result)
	assert.Len(t, got.Metrics, 1)
}

func TestSearchTurns(t *testing.T) {
	turns := sampleTurns()

	assert.Empty(t, SearchTurns(turns, "   "))

	got := SearchTurns(turns, "axis")
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].TurnIndex)
	assert.Equal(t, 1, got[1].TurnIndex)
	assert.Equal(t, model.RoleAgent, got[1].Role)

	// Layer analyses are searchable too.
	got = SearchTurns(turns, "kernel policy")
	require.NotEmpty(t, got)
	assert.Equal(t, 1, got[0].TurnIndex)

	got = SearchTurns(turns, "notes.txt")
	require.NotEmpty(t, got)
	assert.Equal(t, 0, got[0].TurnIndex)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b", Preview("a\n\n b"))
	p := Preview(strings.Repeat("y", 150))
	assert.Equal(t, strings.Repeat("y", 100)+"...", p)
}

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := OpenArchive(filepath.Join(t.TempDir(), "nested", "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestArchiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := openTestArchive(t)
	turns := sampleTurns()

	sink := a.Sink("s1")
	for _, turn := range turns {
		require.NoError(t, sink.Record(ctx, turn))
	}
	// Duplicate writes are ignored.
	require.NoError(t, sink.Record(ctx, turns[0]))

	got, err := a.Turns(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, turns[0].ID, got[0].ID)
	assert.Equal(t, model.RoleUser, got[0].Role)
	require.NotNil(t, got[0].Image)
	assert.Equal(t, "image/png", got[0].Image.MIMEType)
	assert.Equal(t, []byte{1, 2, 3}, got[0].Image.Data)
	require.NotNil(t, got[0].Document)
	assert.Equal(t, "ABC", got[0].Document.Text)
	assert.True(t, turns[0].Timestamp.Equal(got[0].Timestamp))

	require.NotNil(t, got[1].Result)
	assert.Equal(t, *turns[1].Result, *got[1].Result)

	assert.Nil(t, got[2].Result)
	assert.Nil(t, got[2].Image)
	assert.Equal(t, model.SystemErrorMessage, got[2].Content)

	none, err := a.Turns(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestArchiveSessionsAndSearch(t *testing.T) {
	ctx := context.Background()
	a := openTestArchive(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	older := model.NewUserTurn("first 100% session", nil, nil)
	older.Timestamp = base
	newer := model.NewUserTurn("second session", nil, nil)
	newer.Timestamp = base.Add(time.Hour)

	require.NoError(t, a.Record(ctx, "old", older))
	require.NoError(t, a.Record(ctx, "new", newer))

	sessions, err := a.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "new", sessions[0].ID)
	assert.Equal(t, 1, sessions[0].Turns)
	assert.True(t, base.Equal(sessions[1].StartedAt))

	matches, err := a.Search(ctx, "SESSION", 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "new", matches[0].SessionID)

	// LIKE wildcards in the query are literal.
	matches, err = a.Search(ctx, "100%", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "old", matches[0].SessionID)

	matches, err = a.Search(ctx, "_", 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestArchiveReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")

	a, err := OpenArchive(path)
	require.NoError(t, err)
	turn := model.NewUserTurn("persisted", nil, nil)
	require.NoError(t, a.Record(context.Background(), "s", turn))
	require.NoError(t, a.Close())

	b, err := OpenArchive(path)
	require.NoError(t, err)
	defer b.Close()

	got, err := b.Turns(context.Background(), "s")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "persisted", got[0].Content)
}

func TestArchiveSchema(t *testing.T) {
	a := openTestArchive(t)

	rows, err := a.db.Query("SELECT name FROM pragma_table_info('turns')")
	require.NoError(t, err)
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		cols = append(cols, name)
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []string{
		"id", "session_id", "role", "content",
		"image_mime", "image_data", "document_name", "document_text", "result",
		"created_at",
	}, cols)
}
