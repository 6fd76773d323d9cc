package provider

import (
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/go-cmp/cmp"
	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"linae/model"
	"linae/provider/testutil"
)

type ollamaWant struct {
	role    string
	content string
	images  int
}

func TestConvertToOllamaMessages(t *testing.T) {
	tests := []struct {
		name     string
		input    model.Request
		expected []ollamaWant
	}{
		{
			name:  "system only",
			input: model.Request{SystemInstruction: "be calm"},
			expected: []ollamaWant{
				{"system", "be calm", 0},
			},
		},
		{
			name:  "conversation with image",
			input: testutil.ConversationRequest(),
			expected: []ollamaWant{
				{"system", "system", 0},
				{"user", "Hello", 0},
				{"assistant", `{"v":1}`, 0},
				{"user", "What is this?", 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertToOllamaMessages(tt.input)

			if len(result) != len(tt.expected) {
				t.Fatalf("length mismatch: got %d, want %d", len(result), len(tt.expected))
			}

			for i, msg := range result {
				want := tt.expected[i]
				if msg.Role != want.role {
					t.Errorf("message %d role: got %q, want %q", i, msg.Role, want.role)
				}
				if msg.Content != want.content {
					t.Errorf("message %d content: got %q, want %q", i, msg.Content, want.content)
				}
				if len(msg.Images) != want.images {
					t.Errorf("message %d images: got %d, want %d", i, len(msg.Images), want.images)
				}
			}
		})
	}
}

func TestConvertToGeminiContents(t *testing.T) {
	contents := ConvertToGeminiContents(testutil.ConversationRequest())
	if len(contents) != 3 {
		t.Fatalf("len = %d, want 3 (system instruction travels in config)", len(contents))
	}

	roles := []string{contents[0].Role, contents[1].Role, contents[2].Role}
	if diff := cmp.Diff([]string{string(genai.RoleUser), string(genai.RoleModel), string(genai.RoleUser)}, roles); diff != "" {
		t.Errorf("roles mismatch (-want +got):\n%s", diff)
	}

	last := contents[2].Parts
	if len(last) != 2 {
		t.Fatalf("last content has %d parts, want 2", len(last))
	}
	if last[0].InlineData == nil || last[0].InlineData.MIMEType != "image/png" {
		t.Errorf("first part should be the inline image, got %+v", last[0])
	}
	if last[1].Text != "What is this?" {
		t.Errorf("second part text = %q", last[1].Text)
	}
}

func TestGeminiConfig(t *testing.T) {
	req := testutil.TextRequest("hi")

	cfg := geminiConfig(req)
	if cfg.Temperature == nil || *cfg.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", cfg.Temperature)
	}
	if len(cfg.Tools) != 1 || cfg.Tools[0].GoogleSearch == nil {
		t.Errorf("retrieval should attach the search tool, got %+v", cfg.Tools)
	}
	if cfg.ResponseMIMEType != "" {
		t.Errorf("JSON mode must be off with search, got %q", cfg.ResponseMIMEType)
	}
	if cfg.SystemInstruction == nil {
		t.Error("system instruction missing")
	}

	req.EnableRetrieval = false
	cfg = geminiConfig(req)
	if len(cfg.Tools) != 0 {
		t.Error("tools attached without retrieval")
	}
	if cfg.ResponseMIMEType != "application/json" {
		t.Errorf("ResponseMIMEType = %q, want application/json", cfg.ResponseMIMEType)
	}
}

func TestGeminiCitations(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			GroundingMetadata: &genai.GroundingMetadata{
				GroundingChunks: []*genai.GroundingChunk{
					{Web: &genai.GroundingChunkWeb{Title: "Source A", URI: "https://a.example"}},
					{Web: &genai.GroundingChunkWeb{Title: "Source A again", URI: "https://a.example"}},
					{},
					{Web: &genai.GroundingChunkWeb{URI: "https://b.example"}},
				},
			},
		}},
	}

	want := []model.Citation{
		{Title: "Source A", URI: "https://a.example"},
		{Title: "https://b.example", URI: "https://b.example"},
	}
	if diff := cmp.Diff(want, geminiCitations(resp)); diff != "" {
		t.Errorf("citations mismatch (-want +got):\n%s", diff)
	}

	if got := geminiCitations(&genai.GenerateContentResponse{}); got != nil {
		t.Errorf("no candidates should give nil, got %v", got)
	}
}

func TestConvertToOpenAIMessages(t *testing.T) {
	msgs := ConvertToOpenAIMessages(testutil.ConversationRequest())
	if len(msgs) != 4 {
		t.Fatalf("len = %d, want 4", len(msgs))
	}
	if msgs[0].OfSystem == nil {
		t.Error("first message should be the system instruction")
	}
	if msgs[1].OfUser == nil || msgs[2].OfAssistant == nil || msgs[3].OfUser == nil {
		t.Error("role mapping wrong")
	}

	parts := msgs[3].OfUser.Content.OfArrayOfContentParts
	if len(parts) != 2 {
		t.Fatalf("image turn has %d parts, want 2", len(parts))
	}
	if parts[0].OfImageURL == nil {
		t.Fatal("image part should come first")
	}
	if !strings.HasPrefix(parts[0].OfImageURL.ImageURL.URL, "data:image/png;base64,") {
		t.Errorf("image URL = %q", parts[0].OfImageURL.ImageURL.URL)
	}
	if parts[1].OfText == nil || parts[1].OfText.Text != "What is this?" {
		t.Error("text part missing")
	}
}

func TestOpenAICitations(t *testing.T) {
	msg := openai.ChatCompletionMessage{
		Annotations: []openai.ChatCompletionMessageAnnotation{
			{URLCitation: openai.ChatCompletionMessageAnnotationURLCitation{Title: "Doc", URL: "https://doc.example"}},
			{URLCitation: openai.ChatCompletionMessageAnnotationURLCitation{Title: "Doc", URL: "https://doc.example"}},
		},
	}

	want := []model.Citation{{Title: "Doc", URI: "https://doc.example"}}
	if diff := cmp.Diff(want, openAICitations(msg)); diff != "" {
		t.Errorf("citations mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertToAnthropicMessages(t *testing.T) {
	msgs, system := convertToAnthropicMessages(testutil.ConversationRequest())

	if len(system) != 1 || system[0].Text != "system" {
		t.Errorf("system blocks = %+v", system)
	}
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	if msgs[1].Role != anthropic.MessageParamRoleAssistant {
		t.Errorf("second message role = %q, want assistant", msgs[1].Role)
	}

	blocks := msgs[2].Content
	if len(blocks) != 2 {
		t.Fatalf("image turn has %d blocks, want 2", len(blocks))
	}
	if blocks[0].OfImage == nil {
		t.Error("image block should come first")
	}
	if blocks[1].OfText == nil || blocks[1].OfText.Text != "What is this?" {
		t.Error("text block missing")
	}
}

func TestDataURL(t *testing.T) {
	got := DataURL("image/gif", []byte("GIF"))
	if got != "data:image/gif;base64,R0lG" {
		t.Errorf("DataURL() = %q", got)
	}
}

func TestRequestModel(t *testing.T) {
	tests := []struct {
		slug      string
		retrieval bool
		want      string
	}{
		{"google/gemini-2.5-flash", false, "google/gemini-2.5-flash"},
		{"google/gemini-2.5-flash", true, "google/gemini-2.5-flash:online"},
		{"openai/gpt-4o:online", true, "openai/gpt-4o:online"},
	}

	for _, tt := range tests {
		if got := requestModel(tt.slug, tt.retrieval); got != tt.want {
			t.Errorf("requestModel(%q, %v) = %q, want %q", tt.slug, tt.retrieval, got, tt.want)
		}
	}
}

func TestStripProviderPrefix(t *testing.T) {
	if got := stripProviderPrefix("meta-llama/llama-3.2-90b"); got != "llama-3.2-90b" {
		t.Errorf("got %q", got)
	}
	if got := stripProviderPrefix("gpt-4o"); got != "gpt-4o" {
		t.Errorf("got %q", got)
	}
}
