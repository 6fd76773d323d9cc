package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"linae/model"
)

// AnthropicProvider implements the Provider interface using Anthropic's official API.
// When retrieval is enabled the server-side web search tool is attached and
// its result locations come back as citations.
type AnthropicProvider struct {
	client  *anthropic.Client
	model   anthropic.Model
	baseURL string
}

// NewAnthropicProvider creates a new Anthropic provider instance.
//
// Parameters:
//   - baseURL: Anthropic API base URL (default: "https://api.anthropic.com")
//   - apiKey: Anthropic API key (required)
//   - model: Initial model to use (default: "claude-sonnet-4-5-20250929")
//
// Returns an error if the API key is missing.
func NewAnthropicProvider(baseURL, apiKey, model string) (*AnthropicProvider, error) {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	anthropicModel := anthropic.ModelClaudeSonnet4_5_20250929
	if model != "" {
		anthropicModel = anthropic.Model(model)
	}

	client := anthropic.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &AnthropicProvider{
		client:  &client,
		model:   anthropicModel,
		baseURL: baseURL,
	}, nil
}

// Generate implements Provider.Generate with a single non-streaming message.
func (p *AnthropicProvider) Generate(ctx context.Context, req model.Request) (model.Reply, error) {
	messages, system := convertToAnthropicMessages(req)

	params := anthropic.MessageNewParams{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   4096, // Required by Anthropic API
		Temperature: anthropic.Float(float64(req.Temperature)),
	}
	if len(system) > 0 {
		params.System = system
	}
	if req.EnableRetrieval {
		params.Tools = anthropicSearchTools()
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return model.Reply{}, fmt.Errorf("Anthropic request failed: %w", err)
	}

	text := anthropicText(msg.Content)
	if strings.TrimSpace(text) == "" {
		return model.Reply{}, fmt.Errorf("Anthropic stopped with %q: %w", msg.StopReason, ErrEmptyReply)
	}
	return model.Reply{Text: text, Citations: anthropicCitations(msg.Content)}, nil
}

// maxSearchUses bounds web searches per turn.
const maxSearchUses = 5

func anthropicSearchTools() []anthropic.ToolUnionParam {
	return []anthropic.ToolUnionParam{{
		OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{
			MaxUses: anthropic.Int(maxSearchUses),
		},
	}}
}

// anthropicCitations collects web search result locations cited by text
// blocks.
func anthropicCitations(content []anthropic.ContentBlockUnion) []model.Citation {
	var out []model.Citation
	for _, block := range content {
		text, ok := block.AsAny().(anthropic.TextBlock)
		if !ok {
			continue
		}
		for _, c := range text.Citations {
			if loc, ok := c.AsAny().(anthropic.CitationsWebSearchResultLocation); ok {
				out = append(out, model.Citation{Title: loc.Title, URI: loc.URL})
			}
		}
	}
	return dedupeCitations(out)
}

// anthropicText concatenates the text blocks of a reply.
func anthropicText(content []anthropic.ContentBlockUnion) string {
	var b strings.Builder
	for _, block := range content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}
	return b.String()
}

// ListModels implements Provider.ListModels.
func (p *AnthropicProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	// Curated list of vision-capable Claude models
	models := []anthropic.Model{
		anthropic.ModelClaudeSonnet4_5_20250929,
		anthropic.Model("claude-opus-4-1-20250805"),
		anthropic.Model("claude-3-5-haiku-20241022"),
	}

	result := make([]model.ModelInfo, 0, len(models))
	for _, m := range models {
		modelStr := string(m)
		result = append(result, model.ModelInfo{
			Name:         modelStr,
			InternalName: modelStr,
			Provider:     "anthropic", // Must match provider ID
		})
	}

	return result, nil
}

// GetModel implements Provider.GetModel.
func (p *AnthropicProvider) GetModel() string {
	return string(p.model)
}

// GetDisplayName implements Provider.GetDisplayName.
func (p *AnthropicProvider) GetDisplayName() string {
	return string(p.model)
}

// SetModel implements Provider.SetModel.
func (p *AnthropicProvider) SetModel(model string) {
	p.model = anthropic.Model(model)
}

// Ping implements Provider.Ping by attempting a minimal request.
func (p *AnthropicProvider) Ping(ctx context.Context) error {
	// Anthropic doesn't have a ping/health endpoint, so we make a minimal request
	_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return fmt.Errorf("Anthropic ping failed: %w", err)
	}
	return nil
}
