package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"linae/model"
)

// OpenAIProvider implements the Provider interface using OpenAI's official API.
// It uses the official OpenAI Go SDK for direct OpenAI API access.
//
// The retrieval flag is ignored here: OpenAI exposes web search only on
// dedicated search models, so it is selected through the model name.
type OpenAIProvider struct {
	client  openai.Client
	model   string
	baseURL string
}

// NewOpenAIProvider creates a new OpenAI provider instance.
//
// Parameters:
//   - baseURL: OpenAI API base URL (default: "https://api.openai.com/v1")
//   - apiKey: OpenAI API key (required)
//   - model: Initial model to use (default: "gpt-4o-mini")
//
// Returns an error if the API key is missing.
func NewOpenAIProvider(baseURL, apiKey, model string) (*OpenAIProvider, error) {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = "gpt-4o-mini" // Default to affordable vision model
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &OpenAIProvider{
		client:  client,
		model:   model,
		baseURL: baseURL,
	}, nil
}

// Generate implements Provider.Generate with a single non-streaming completion.
func (p *OpenAIProvider) Generate(ctx context.Context, req model.Request) (model.Reply, error) {
	reply, err := completeChat(ctx, p.client, p.model, req)
	if err != nil {
		return model.Reply{}, fmt.Errorf("OpenAI request failed: %w", err)
	}
	return reply, nil
}

// completeChat is shared by the OpenAI-compatible providers.
func completeChat(ctx context.Context, client openai.Client, modelName string, req model.Request) (model.Reply, error) {
	params := openai.ChatCompletionNewParams{
		Messages:    ConvertToOpenAIMessages(req),
		Model:       openai.ChatModel(modelName),
		Temperature: openai.Float(float64(req.Temperature)),
	}

	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.Reply{}, err
	}
	if len(completion.Choices) == 0 {
		return model.Reply{}, fmt.Errorf("no choices: %w", ErrEmptyReply)
	}

	msg := completion.Choices[0].Message
	if strings.TrimSpace(msg.Content) == "" {
		if msg.Refusal != "" {
			return model.Reply{}, fmt.Errorf("refused (%s): %w", msg.Refusal, ErrEmptyReply)
		}
		return model.Reply{}, ErrEmptyReply
	}
	return model.Reply{
		Text:      msg.Content,
		Citations: openAICitations(msg),
	}, nil
}

// openAICitations reads url_citation annotations from a completion message.
func openAICitations(msg openai.ChatCompletionMessage) []model.Citation {
	var out []model.Citation
	for _, a := range msg.Annotations {
		out = append(out, model.Citation{Title: a.URLCitation.Title, URI: a.URLCitation.URL})
	}
	return dedupeCitations(out)
}

// ListModels implements Provider.ListModels.
func (p *OpenAIProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	modelsPage, err := p.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list OpenAI models: %w", err)
	}

	result := make([]model.ModelInfo, 0, len(modelsPage.Data))
	for _, m := range modelsPage.Data {
		result = append(result, model.ModelInfo{
			Name:         m.ID, // OpenAI models don't have vendor prefixes
			InternalName: m.ID,
			Provider:     "openai", // Must match provider ID
		})
	}

	return result, nil
}

// GetModel implements Provider.GetModel.
func (p *OpenAIProvider) GetModel() string {
	return p.model
}

// GetDisplayName implements Provider.GetDisplayName.
func (p *OpenAIProvider) GetDisplayName() string {
	return p.model
}

// SetModel implements Provider.SetModel.
func (p *OpenAIProvider) SetModel(model string) {
	p.model = model
}

// Ping implements Provider.Ping by attempting to list models.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	_, err := p.client.Models.List(ctx)
	if err != nil {
		return fmt.Errorf("OpenAI ping failed: %w", err)
	}
	return nil
}
